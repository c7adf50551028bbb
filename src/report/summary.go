package report

import (
	"math"
	"strconv"
	"strings"

	"MovieRuntime/src/processor"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary 生成可直接打印的分析摘要，数字按千位分组
func Summary(a *processor.Analysis) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	p.Fprintf(&b, "Movies analysed (startYear > %s): %d\n", year(a.YearFloor), a.Rows)
	if n := len(a.Yearly); n > 0 {
		p.Fprintf(&b, "Years covered: %s-%s (%d years)\n", year(a.Yearly[0].Year), year(a.Yearly[n-1].Year), n)
	}

	o := a.Overall
	p.Fprintf(&b, "Runtime minutes: mean %s, std %s, min %s, median %s, max %s\n",
		num(p, o.Mean), num(p, o.Std), num(p, o.Min), num(p, o.Q50), num(p, o.Max))
	p.Fprintf(&b, "Runtime quartiles: %s / %s / %s\n", num(p, o.Q25), num(p, o.Q50), num(p, o.Q75))

	if a.Coverage.Found {
		p.Fprintf(&b, "Every year since %s has at least %d movies\n", year(a.Coverage.Year), a.Coverage.MinCount)
	} else {
		p.Fprintf(&b, "The latest year has fewer than %d movies\n", a.Coverage.MinCount)
	}

	ib := a.InBand
	p.Fprintf(&b, "Share within mean ± std: mean %s, min %s, max %s over %d years (reference %s)\n",
		pct(p, ib.Mean), pct(p, ib.Min), pct(p, ib.Max), ib.Count, pct(p, a.BandTarget))

	if len(a.TopN) > 0 {
		p.Fprintf(&b, "Mean of yearly means since %s:\n", year(a.TopNFloor+1))
		for _, s := range a.TopN {
			p.Fprintf(&b, "  %-8s %s\n", s.Label, num(p, s.MeanOfMeans))
		}
	}

	if len(a.Decades) > 0 {
		b.WriteString("Median runtime by decade:\n")
		for _, d := range a.Decades {
			p.Fprintf(&b, "  %ss %s (%d movies)\n", year(d.Decade), num(p, d.Q50), d.Count)
		}
	}
	return b.String()
}

// year 年份不做千位分组
func year(y int) string {
	return strconv.Itoa(y)
}

// num 保留一位小数，NaN 显示为 n/a
func num(p *message.Printer, v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return p.Sprintf("%.1f", v)
}

func pct(p *message.Printer, v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return p.Sprintf("%.1f%%", v*100)
}
