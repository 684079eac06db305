package storage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ThumbSize bounds the longer side of a flyer thumbnail.
const ThumbSize = 480

// Thumbnail decodes an uploaded image and returns a JPEG that fits in a
// ThumbSize square. A decode failure means the upload is not a usable image.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileType, err)
	}
	thumb := imaging.Fit(img, ThumbSize, ThumbSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ThumbName is the thumbnail file name for a stored flyer image.
func ThumbName(name string) string {
	return "thumb-" + strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
