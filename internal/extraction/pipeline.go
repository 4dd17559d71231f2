package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

// LeadSink receives the candidates harvested from one utterance.
// The leads repository satisfies this interface.
type LeadSink interface {
	SaveCandidates(ctx context.Context, conversationID string, candidates Candidates) (string, error)
}

// PipelineMetrics is the observability hook the pipeline reports into.
type PipelineMetrics interface {
	ObserveCandidates(kind string, count int)
	ObserveLeadSaved(ok bool)
}

// ErrPipelineClosed indicates the pipeline no longer accepts work.
var ErrPipelineClosed = errors.New("extraction: pipeline closed")

// Pipeline harvests leads from chat text as a side channel, decoupled from
// response generation: the conversation engine publishes each user utterance
// and worker goroutines run the extractor and persist any candidates.
// A pipeline failure never affects the user-visible reply.
type Pipeline struct {
	queue   queueClient
	sink    LeadSink
	logger  *logging.Logger
	metrics PipelineMetrics

	cfg pipelineConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const (
	defaultPipelineWorkers = 2
	defaultReceiveWait     = 2 // seconds
	defaultReceiveMax      = 5 // messages
)

type pipelineConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// PipelineOption configures the pipeline.
type PipelineOption func(*pipelineConfig)

// WithWorkerCount overrides the number of queue polling goroutines.
func WithWorkerCount(workers int) PipelineOption {
	return func(cfg *pipelineConfig) {
		if workers > 0 {
			cfg.workers = workers
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait time for Receive calls.
func WithReceiveWaitSeconds(seconds int) PipelineOption {
	return func(cfg *pipelineConfig) {
		if seconds >= 0 {
			cfg.receiveWaitSecs = seconds
		}
	}
}

// NewPipeline starts the extraction workers around the supplied queue and sink.
func NewPipeline(queue queueClient, sink LeadSink, logger *logging.Logger, metrics PipelineMetrics, opts ...PipelineOption) *Pipeline {
	if queue == nil {
		panic("extraction: queue cannot be nil")
	}
	if sink == nil {
		panic("extraction: sink cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := pipelineConfig{
		workers:          defaultPipelineWorkers,
		receiveWaitSecs:  defaultReceiveWait,
		receiveBatchSize: defaultReceiveMax,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		queue:   queue,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i + 1)
	}

	return p
}

type extractionJob struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// Publish enqueues one utterance for background extraction.
func (p *Pipeline) Publish(ctx context.Context, conversationID, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.ctx.Done():
		return ErrPipelineClosed
	default:
	}

	body, err := json.Marshal(extractionJob{ConversationID: conversationID, Text: text})
	if err != nil {
		return fmt.Errorf("extraction: failed to encode job: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("extraction: failed to enqueue job: %w", err)
	}
	return nil
}

// Shutdown stops worker goroutines, waiting up to ctx's deadline.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (p *Pipeline) runWorker(workerID int) {
	defer p.wg.Done()
	p.logger.Debug("extraction worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("extraction worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := p.queue.Receive(p.ctx, p.cfg.receiveBatchSize, p.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.logger.Error("failed to receive extraction jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			p.handleMessage(msg)
		}
	}
}

func (p *Pipeline) handleMessage(msg queueMessage) {
	defer func() {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.queue.Delete(deleteCtx, msg.ReceiptHandle); err != nil {
			p.logger.Error("failed to delete extraction job", "error", err)
		}
	}()

	var job extractionJob
	if err := json.Unmarshal([]byte(msg.Body), &job); err != nil {
		p.logger.Error("failed to decode extraction job", "error", err)
		return
	}

	candidates := Extract(job.Text)
	p.observeCandidates(candidates)
	if candidates.IsEmpty() {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	leadID, err := p.sink.SaveCandidates(saveCtx, job.ConversationID, candidates)
	if err != nil {
		// Lead persistence is best effort; the reply already went out.
		p.logger.Error("failed to save lead candidates",
			"error", err,
			"conversation_id", job.ConversationID,
		)
		if p.metrics != nil {
			p.metrics.ObserveLeadSaved(false)
		}
		return
	}

	p.logger.Info("lead candidates saved",
		"lead_id", leadID,
		"conversation_id", job.ConversationID,
		"phones", len(candidates.Phones),
		"emails", len(candidates.Emails),
		"names", len(candidates.Names),
	)
	if p.metrics != nil {
		p.metrics.ObserveLeadSaved(true)
	}
}

func (p *Pipeline) observeCandidates(c Candidates) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveCandidates(string(KindPhone), len(c.Phones))
	p.metrics.ObserveCandidates(string(KindEmail), len(c.Emails))
	p.metrics.ObserveCandidates(string(KindName), len(c.Names))
	p.metrics.ObserveCandidates(string(KindInvestorType), len(c.InvestorTypes))
	p.metrics.ObserveCandidates(string(KindCompany), len(c.Companies))
}
