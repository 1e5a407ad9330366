package services

import (
	"fmt"
	"io"
	"strings"

	"climate-dashboard/models"
	"climate-dashboard/utils"
)

// InsightService condenses a render pass into a console report.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(res *Result) *models.InsightReport {
	ds := res.Dataset
	report := &models.InsightReport{
		Records:      len(ds.Records),
		MeanProgress: res.Aggregates.MeanProgress,
		Phases:       res.Aggregates.Phases,
		TopProgress:  res.Aggregates.TopProgress,
	}

	projects := utils.NewKeySet()
	for _, r := range ds.Records {
		if r.Project.Valid {
			projects.Add(r.Project.String)
		}
		report.TotalRequired += r.RequiredBudget.OrZero()
		report.TotalExecuted += r.ExecutedBudget.OrZero()
		report.TotalArea += r.Area.OrZero()
		report.TotalAvoidedCO2 += r.AvoidedCO2.OrZero()
	}
	report.Projects = projects.Size()

	if report.TotalRequired > 0 {
		report.ExecutionRate = models.Float(report.TotalExecuted / report.TotalRequired)
	}
	if len(res.Aggregates.Upcoming) > 0 {
		next := res.Aggregates.Upcoming[0]
		report.NextMilestone = &next
	}
	for _, w := range res.Dashboard.Widgets {
		if w.IsEmpty() {
			report.EmptyWidgets = append(report.EmptyWidgets, w.ID)
		}
	}

	s.logger.Debug("[insights] %d records, %d projects, %d empty widgets",
		report.Records, report.Projects, len(report.EmptyWidgets))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🌱 RESUMEN DE PROYECTOS DE CAMBIO CLIMÁTICO\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  General\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Registros          : \033[1m%d\033[0m\n", r.Records)
	fmt.Fprintf(w, "  Proyectos          : \033[1m%d\033[0m\n", r.Projects)
	if r.MeanProgress.Valid {
		fmt.Fprintf(w, "  Avance promedio    : \033[1;32m%.0f%%\033[0m\n", r.MeanProgress.Float64*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Presupuesto (USD)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Requerido : \033[1;32m$%.2f\033[0m\n", r.TotalRequired)
	fmt.Fprintf(w, "  Ejecutado : \033[1;32m$%.2f\033[0m\n", r.TotalExecuted)
	if r.ExecutionRate.Valid {
		fmt.Fprintf(w, "  Ejecución : \033[1m%.1f%%\033[0m\n", r.ExecutionRate.Float64*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Impacto\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Superficie intervenida : %.2f ha\n", r.TotalArea)
	fmt.Fprintf(w, "  CO₂ eq evitado         : %.2f t\n", r.TotalAvoidedCO2)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Proyectos por fase\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Phases) == 0 {
		fmt.Fprintf(w, "  Sin datos de fase\n")
	}
	for _, p := range r.Phases {
		fmt.Fprintf(w, "  %-30s %s (%d)\n", truncateRunes(p.Phase, 28), strings.Repeat("█", p.Count), p.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top 5 por avance\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopProgress) == 0 {
		fmt.Fprintf(w, "  Sin datos de avance\n")
	}
	for i, p := range r.TopProgress {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.0f%%\033[0m\n",
			i+1, truncateRunes(p.Project, 38), p.Progress*100)
	}
	fmt.Fprintln(w)

	if r.NextMilestone != nil {
		fmt.Fprintf(w, "  Próxima fecha fin : %s → %s\n",
			r.NextMilestone.Project, r.NextMilestone.EndDate.Format(models.DateLayout))
	}
	if len(r.EmptyWidgets) > 0 {
		fmt.Fprintf(w, "  Sin datos         : %s\n", strings.Join(r.EmptyWidgets, ", "))
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}
