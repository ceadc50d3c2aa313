package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/profitlens/internal/column"
	obsmetrics "github.com/smallbiznis/profitlens/internal/observability/metrics"
	"github.com/smallbiznis/profitlens/internal/record"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	"github.com/smallbiznis/profitlens/internal/verification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Sources sourcedomain.Service
	Schemas *column.SchemaCache `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// Service applies verification transitions. It scans every source and
// patches every record whose order id matches, so the same id in two
// unrelated sources is verified in both.
type Service struct {
	log     *zap.Logger
	sources sourcedomain.Service
	schemas *column.SchemaCache
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	schemas := p.Schemas
	if schemas == nil {
		schemas = column.NewSchemaCache()
	}
	return &Service{
		log:     p.Log.Named("verification.service"),
		sources: p.Sources,
		schemas: schemas,
		metrics: p.Metrics,
	}
}

func (s *Service) Verify(ctx context.Context, req domain.VerifyRequest) (domain.Result, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return domain.Result{}, domain.ErrInvalidOrderID
	}
	target, err := domain.ParseTarget(req.State)
	if err != nil {
		return domain.Result{}, err
	}

	result := domain.Result{OrderID: orderID, State: target}
	_, err = s.sources.Rewrite(ctx, func(ds sourcedomain.DataSource, records []record.Record) ([]record.Record, bool) {
		schema := s.schemas.Get(record.Columns(records))
		if schema.OrderID == "" {
			return nil, false
		}
		next, matched, updated := transition(records, schema, orderID, target)
		result.Matched += matched
		result.Updated += updated
		result.Skipped += matched - updated
		if updated == 0 {
			return nil, false
		}
		result.Sources = append(result.Sources, ds.ID)
		return next, true
	})
	if err != nil {
		return domain.Result{}, err
	}

	switch {
	case result.Matched == 0:
		return domain.Result{}, domain.ErrOrderNotFound
	case result.Updated == 0:
		return result, domain.ErrAlreadyFinalized
	}

	s.metrics.RecordVerification(string(target), result.Updated)
	s.log.Info("order verified",
		zap.String("order_id", orderID),
		zap.String("state", string(target)),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Strings("source_ids", result.Sources),
	)
	return result, nil
}

// transition returns a new list in which every pending record matching
// orderID is replaced. Other records are carried over untouched.
func transition(records []record.Record, schema column.Schema, orderID string, target domain.State) ([]record.Record, int, int) {
	statusKey := schema.Verification
	if statusKey == "" {
		statusKey = column.VerificationStatus
	}
	tagsKey := schema.Tags
	if tagsKey == "" {
		tagsKey = column.Tags
	}

	var (
		next             []record.Record
		matched, updated int
	)
	for i, r := range records {
		if record.Text(r, schema.OrderID) != orderID {
			continue
		}
		matched++
		if domain.Terminal(record.Text(r, statusKey)) {
			continue
		}
		if next == nil {
			next = make([]record.Record, len(records))
			copy(next, records)
		}
		next[i] = r.
			With(statusKey, string(target)).
			With(tagsKey, appendTag(record.Text(r, tagsKey), target.Tag()))
		updated++
	}
	return next, matched, updated
}

func appendTag(tags, tag string) string {
	if tags == "" {
		return tag
	}
	for _, t := range strings.Split(tags, ",") {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return tags
		}
	}
	return tags + ", " + tag
}
