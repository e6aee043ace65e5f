package ai

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/exploitsearch/internal/application"
	"github.com/bryanwahyu/exploitsearch/internal/domain/analyst"
	"github.com/bryanwahyu/exploitsearch/internal/domain/exploits"
)

// Service runs analyses through the Coordinator and settles their terminal
// events on a watcher goroutine. Repo and OnSettled are optional.
type Service struct {
	Coord     *Coordinator
	Repo      analyst.Repository
	OnSettled func(res Result, applied bool)
}

func NewService(coord *Coordinator, repo analyst.Repository) *Service {
	return &Service{Coord: coord, Repo: repo}
}

// Enabled reports whether analyses can be requested at all.
func (s *Service) Enabled() bool { return s.Coord != nil && s.Coord.Enabled() }

// Analyze dispatches one request for rec and returns without waiting for it.
func (s *Service) Analyze(ctx context.Context, rec exploits.Record) (*Request, error) {
	req, err := s.Coord.Dispatch(ctx, rec)
	if err != nil {
		return nil, err
	}
	go s.watch(req)
	return req, nil
}

func (s *Service) watch(req *Request) {
	res := req.Result()
	applied := s.Coord.Settle(res)
	if !applied {
		log.Printf("analysis discarded: request=%d exploit=%s latest=%d", res.RequestID, res.Record.ID, s.Coord.Latest())
	} else if res.OK() {
		log.Printf("analysis ready: request=%d exploit=%s no_data=%t", res.RequestID, res.Record.ID, res.NoData)
	} else {
		log.Printf("analysis failed: request=%d exploit=%s err=%v", res.RequestID, res.Record.ID, res.Err)
	}

	if applied && s.Repo != nil {
		if err := s.Repo.Save(context.Background(), toAnalysis(res, s.Coord.clock)); err != nil {
			log.Printf("analysis save error: request=%d err=%v", res.RequestID, err)
		}
	}
	if s.OnSettled != nil {
		s.OnSettled(res, applied)
	}
}

// Current returns the display slot.
func (s *Service) Current() Display { return s.Coord.Current() }

// ListAnalyses returns stored analyses, newest first.
func (s *Service) ListAnalyses(ctx context.Context, page, pageSize int) ([]*analyst.Analysis, error) {
	if s.Repo == nil {
		return nil, ErrNoHistory
	}
	return s.Repo.Paginate(ctx, page, pageSize)
}

// LatestFor returns the newest stored analysis of one exploit.
func (s *Service) LatestFor(ctx context.Context, exploitID string) (*analyst.Analysis, error) {
	if s.Repo == nil {
		return nil, ErrNoHistory
	}
	return s.Repo.LatestByExploit(ctx, strings.TrimSpace(exploitID))
}

func toAnalysis(res Result, clock application.Clock) *analyst.Analysis {
	a := &analyst.Analysis{
		ID:        analyst.AnalysisID(uuid.New().String()),
		ExploitID: res.Record.ID,
		RequestID: res.RequestID,
		Result:    res.Text,
		NoData:    res.NoData,
		CreatedAt: clock.Now(),
	}
	if res.Err != nil {
		a.Error = res.Err.Error()
	}
	return a
}
