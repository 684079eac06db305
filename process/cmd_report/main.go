package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/process/report"
)

func main() {
	month := flag.String("month", "", "month to report (YYYY-MM, default current month)")
	list := flag.Bool("list", false, "list matching rows")
	xlsx := flag.String("xlsx", "", "also write the report to this .xlsx file")
	flag.Parse()

	cfg, err := config.LoadTool()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	loc, err := time.LoadLocation(cfg.Gold.Timezone)
	if err != nil {
		fmt.Fprintln(os.Stderr, "timezone:", err)
		os.Exit(2)
	}
	m, err := report.ParseMonth(*month, time.Now(), loc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	db, err := database.Open(cfg.Database, gormlogger.Discard)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	r, err := report.Build(context.Background(), db, m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	r.Print(os.Stdout, *list)

	if *xlsx == "" {
		return
	}
	wb, err := r.Workbook()
	if err != nil {
		fmt.Fprintln(os.Stderr, "workbook:", err)
		os.Exit(1)
	}
	if err := wb.SaveAs(*xlsx); err != nil {
		fmt.Fprintln(os.Stderr, "save:", err)
		os.Exit(1)
	}
	fmt.Println("wrote", *xlsx)
}
