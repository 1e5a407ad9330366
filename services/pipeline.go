package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"climate-dashboard/models"
	"climate-dashboard/utils"
)

const tracerName = "climate-dashboard/services"

// Result is everything one render pass produces.
type Result struct {
	Dataset    *models.Dataset
	Aggregates *models.Aggregates
	Dashboard  models.Dashboard
}

// Pipeline runs normalize → aggregate → present over a loaded table.
// It keeps no state between runs, so the same table always renders the
// same dashboard.
type Pipeline struct {
	normalizer *Normalizer
	aggregator *Aggregator
	presenter  *Presenter
	logger     *utils.Logger
	tracer     trace.Tracer
}

// NewPipeline wires the three stages with the Ecuador gazetteer.
func NewPipeline(theme *Theme, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		normalizer: NewNormalizer(logger),
		aggregator: NewAggregator(EcuadorGazetteer(), logger),
		presenter:  NewPresenter(theme),
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Render runs every stage on table. It never fails: degraded cells become
// missing values and empty views become empty-state widgets.
func (p *Pipeline) Render(ctx context.Context, table *models.Table) *Result {
	ctx, span := p.tracer.Start(ctx, "pipeline.render", trace.WithAttributes(
		attribute.String("sheet", table.Sheet),
		attribute.Int("rows", len(table.Rows)),
	))
	defer span.End()

	_, nspan := p.tracer.Start(ctx, "pipeline.normalize")
	ds := p.normalizer.Normalize(table)
	nspan.End()

	_, aspan := p.tracer.Start(ctx, "pipeline.aggregate")
	agg := p.aggregator.Aggregate(ds)
	aspan.End()

	_, pspan := p.tracer.Start(ctx, "pipeline.present")
	dash := p.presenter.Present(agg)
	pspan.End()

	empty := 0
	for i := range dash.Widgets {
		if dash.Widgets[i].IsEmpty() {
			empty++
		}
	}
	span.SetAttributes(attribute.Int("widgets.empty", empty))
	p.logger.Info("[pipeline] rendered %d widgets (%d empty) from %d records",
		len(dash.Widgets), empty, len(ds.Records))

	return &Result{Dataset: ds, Aggregates: agg, Dashboard: dash}
}
