package storage

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"todolist/domain"
)

const tracerName = "todolist/storage"

// Traced wraps a store and records one span per storage call.
type Traced struct {
	base   domain.ListStorage
	tracer trace.Tracer
}

// NewTraced creates a tracing wrapper around base using spans from tp.
func NewTraced(base domain.ListStorage, tp trace.TracerProvider) *Traced {
	if base == nil {
		panic("storage.NewTraced: base storage is nil")
	}
	return &Traced{base: base, tracer: tp.Tracer(tracerName)}
}

func (t *Traced) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "storage."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *Traced) Items(ctx context.Context) (items []domain.Item, err error) {
	ctx, span := t.start(ctx, "Items")
	defer func() {
		span.SetAttributes(attribute.Int("todo.items_returned", len(items)))
		finish(span, err)
	}()
	return t.base.Items(ctx)
}

func (t *Traced) InsertItems(ctx context.Context, items []domain.Item) (err error) {
	ctx, span := t.start(ctx, "InsertItems", attribute.Int("todo.items", len(items)))
	defer func() { finish(span, err) }()
	return t.base.InsertItems(ctx, items)
}

func (t *Traced) DeleteItem(ctx context.Context, id string) (removed bool, err error) {
	ctx, span := t.start(ctx, "DeleteItem", attribute.String("todo.item", id))
	defer func() {
		span.SetAttributes(attribute.Bool("todo.removed", removed))
		finish(span, err)
	}()
	return t.base.DeleteItem(ctx, id)
}

func (t *Traced) FindList(ctx context.Context, name string) (list *domain.List, err error) {
	ctx, span := t.start(ctx, "FindList", attribute.String("todo.list", name))
	defer func() {
		span.SetAttributes(attribute.Bool("todo.found", list != nil))
		finish(span, err)
	}()
	return t.base.FindList(ctx, name)
}

func (t *Traced) SaveList(ctx context.Context, list *domain.List) (err error) {
	ctx, span := t.start(ctx, "SaveList",
		attribute.String("todo.list", list.Name),
		attribute.Bool("todo.new_list", list.ID == ""),
	)
	defer func() { finish(span, err) }()
	return t.base.SaveList(ctx, list)
}

func (t *Traced) RemoveListItem(ctx context.Context, listName, itemID string) (removed bool, err error) {
	ctx, span := t.start(ctx, "RemoveListItem",
		attribute.String("todo.list", listName),
		attribute.String("todo.item", itemID),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("todo.removed", removed))
		finish(span, err)
	}()
	return t.base.RemoveListItem(ctx, listName, itemID)
}
