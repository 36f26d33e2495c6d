package main

import (
	"io"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tally/internal/textutil"
)

var printer = message.NewPrinter(language.English)

// writeDurationSummary reports the total tracked time and its workday
// equivalent, including how much is missing to reach a whole workday.
func writeDurationSummary(out io.Writer, label string, count int, totalHours, hoursPerWorkday float64) {
	printer.Fprintf(out, "%d %s, %s total (%.2f h)\n",
		count, label, textutil.FormatHours(totalHours), totalHours)
	if hoursPerWorkday <= 0 {
		return
	}
	workdays := totalHours / hoursPerWorkday
	printer.Fprintf(out, "%.2f workdays at %s per day", workdays, textutil.FormatHours(hoursPerWorkday))
	if remainder := math.Ceil(workdays)*hoursPerWorkday - totalHours; remainder > 1e-9 {
		printer.Fprintf(out, ", %s short of %.0f", textutil.FormatHours(remainder), math.Ceil(workdays))
	}
	printer.Fprintln(out)
}
