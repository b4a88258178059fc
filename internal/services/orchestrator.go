package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"poster-gen-backend/internal/errs"
	"poster-gen-backend/internal/generation"
	"poster-gen-backend/internal/imagegen"
	"poster-gen-backend/internal/models"
	"poster-gen-backend/internal/quota"
	"poster-gen-backend/internal/supabase"
)

const maxImageCount = 4

// maxProviderRetries bounds the retry wrapper around provider calls.
const maxProviderRetries = 3

// Provider is the image-generation backend.
type Provider interface {
	Generate(ctx context.Context, req imagegen.GenerateRequest) (*imagegen.GenerateResponse, error)
	GenerateStream(ctx context.Context, req imagegen.GenerateRequest, onChunk func(*imagegen.GenerateResponse) error) error
	RetryWithBackoff(fn func() error, maxRetries int) error
	Model() string
}

// RecordStore persists completed generations.
type RecordStore interface {
	CreateGenerationWithResult(uid, prompt, refImg string, urls []string) (*models.UserGeneration, error)
}

// ImageReconciler re-hosts provider output on application storage.
type ImageReconciler interface {
	Reconcile(ctx context.Context, uid string, images []string) []string
}

// EventPublisher publishes generation lifecycle events for the app to observe.
type EventPublisher interface {
	PublishUserEvent(uid string, event string, payload map[string]interface{}) error
}

// Outcome is the result of a completed generation run. Warnings carry the
// non-fatal failures (record persist, quota consume) that must not hide the
// already-produced images.
type Outcome struct {
	Images   []string
	Dosage   int
	Record   *models.UserGeneration
	Warnings []string
}

// Orchestrator drives a generation run: quota gate, state tracking, provider
// fan-out or streaming, upload reconciliation, record persistence, and quota
// consumption.
type Orchestrator struct {
	provider   Provider
	quota      quota.Store
	states     generation.StateStore
	records    RecordStore
	reconciler ImageReconciler
	realtime   EventPublisher
}

func NewOrchestrator(
	provider Provider,
	quotaStore quota.Store,
	states generation.StateStore,
	records RecordStore,
	reconciler ImageReconciler,
	realtime EventPublisher,
) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		quota:      quotaStore,
		states:     states,
		records:    records,
		reconciler: reconciler,
		realtime:   realtime,
	}
}

// Run executes one generation for a user.
//
// Guards, in order: an already-active generation returns
// errs.ErrGenerationInProgress without touching the provider; an exhausted
// quota returns errs.ErrQuotaExhausted without mutating any state. The state
// is marked completed as soon as provider results are final, before
// reconciliation and persistence, so a resuming client sees completion
// promptly. Record-persist and quota-consume failures are reported as
// warnings, never as a failed run.
func (o *Orchestrator) Run(ctx context.Context, params generation.Params) (*Outcome, error) {
	if err := normalizeParams(&params); err != nil {
		return nil, err
	}

	active, err := o.states.HasActive(params.UID)
	if err != nil {
		return nil, fmt.Errorf("failed to check generation state: %w", err)
	}
	if active {
		return nil, errs.ErrGenerationInProgress
	}

	status, err := o.quota.Check(params.UID)
	if err != nil {
		return nil, err
	}
	if !status.CanGenerate {
		return nil, errs.ErrQuotaExhausted
	}

	// Start carries its own active-state guard, so two requests racing past
	// the HasActive check cannot both reach the provider.
	if err := o.states.Start(params); err != nil {
		if errors.Is(err, errs.ErrGenerationInProgress) {
			return nil, errs.ErrGenerationInProgress
		}
		return nil, fmt.Errorf("failed to persist generation state: %w", err)
	}
	o.publish(params.UID, "generation_started",
		supabase.GenerationStartedPayload(params.UID, params.ImageCount, params.StreamEnabled))

	var images []string
	if params.StreamEnabled {
		images, err = o.generateStreaming(ctx, params)
	} else {
		images, err = o.generateParallel(ctx, params)
	}
	if err != nil || len(images) == 0 {
		if err == nil {
			err = errs.ErrProviderFailure
		}
		o.fail(params.UID, err)
		return nil, err
	}

	// Results are final: mark completed before the remaining steps so a
	// resuming client is not stuck on an in-progress view.
	if err := o.states.Complete(params.UID); err != nil {
		log.Printf("orchestrator: failed to mark generation completed for %s: %v", params.UID, err)
	}

	outcome := &Outcome{}
	outcome.Images = o.reconciler.Reconcile(ctx, params.UID, images)

	record, err := o.records.CreateGenerationWithResult(
		params.UID, params.Prompt, strings.Join(params.ReferenceImages, ","), outcome.Images)
	if err != nil {
		// Images are still shown even when never durably recorded.
		log.Printf("orchestrator: failed to persist generation record for %s: %v", params.UID, err)
		outcome.Warnings = append(outcome.Warnings, "generation record was not saved")
	} else {
		outcome.Record = record
	}

	status, err = o.quota.Consume(params.UID)
	if err != nil {
		log.Printf("orchestrator: failed to consume dosage for %s: %v", params.UID, err)
		outcome.Warnings = append(outcome.Warnings, "daily quota could not be updated")
		o.publish(params.UID, "quota_warning",
			supabase.QuotaWarningPayload(params.UID, "daily quota could not be updated"))
	} else {
		outcome.Dosage = status.Dosage
	}

	o.publish(params.UID, "generation_completed",
		supabase.GenerationCompletedPayload(params.UID, outcome.Images))

	return outcome, nil
}

// generateParallel issues one single-image request per requested image and
// keeps whatever succeeds, in slot order.
func (o *Orchestrator) generateParallel(ctx context.Context, params generation.Params) ([]string, error) {
	req := o.buildRequest(params)
	req.N = 1

	results := make([]string, params.ImageCount)
	var wg sync.WaitGroup
	for i := 0; i < params.ImageCount; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			var resp *imagegen.GenerateResponse
			err := o.provider.RetryWithBackoff(func() error {
				var genErr error
				resp, genErr = o.provider.Generate(ctx, req)
				return genErr
			}, maxProviderRetries)
			if err != nil {
				log.Printf("orchestrator: parallel request %d failed for %s: %v", slot, params.UID, err)
				return
			}
			results[slot] = firstImage(resp)
		}(i)
	}
	wg.Wait()

	images := make([]string, 0, params.ImageCount)
	for _, r := range results {
		if r != "" {
			images = append(images, r)
		}
	}
	if len(images) == 0 {
		return nil, errs.ErrProviderFailure
	}
	return images, nil
}

// errStreamSatisfied stops the stream once enough unique images arrived.
var errStreamSatisfied = errors.New("stream satisfied")

// generateStreaming runs one streaming request, deduplicating images across
// chunks in arrival order until the requested count is reached.
func (o *Orchestrator) generateStreaming(ctx context.Context, params generation.Params) ([]string, error) {
	req := o.buildRequest(params)
	req.N = params.ImageCount

	seen := make(map[string]struct{})
	images := make([]string, 0, params.ImageCount)

	onChunk := func(chunk *imagegen.GenerateResponse) error {
		for _, d := range chunk.Data {
			img := imageString(d)
			if img == "" {
				continue
			}
			if _, ok := seen[img]; ok {
				continue
			}
			seen[img] = struct{}{}
			images = append(images, img)
			if len(images) >= params.ImageCount {
				return errStreamSatisfied
			}
		}
		return nil
	}

	// The accumulator lives outside the retry closure, so a retried stream
	// cannot duplicate images it already delivered.
	err := o.provider.RetryWithBackoff(func() error {
		streamErr := o.provider.GenerateStream(ctx, req, onChunk)
		if errors.Is(streamErr, errStreamSatisfied) {
			return nil
		}
		return streamErr
	}, maxProviderRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrProviderFailure, err)
	}
	if len(images) == 0 {
		return nil, errs.ErrProviderFailure
	}
	return images, nil
}

func (o *Orchestrator) buildRequest(params generation.Params) imagegen.GenerateRequest {
	return imagegen.GenerateRequest{
		Model:          o.provider.Model(),
		Prompt:         params.Prompt,
		Image:          params.ReferenceImages,
		Size:           models.SizeForAspectRatio(params.AspectRatio),
		ResponseFormat: params.ResponseFormat,
	}
}

// fail clears the state and notifies the client; the caller surfaces the error.
func (o *Orchestrator) fail(uid string, err error) {
	if clearErr := o.states.Clear(uid); clearErr != nil {
		log.Printf("orchestrator: failed to clear generation state for %s: %v", uid, clearErr)
	}
	o.publish(uid, "generation_failed", supabase.GenerationFailedPayload(uid, err.Error()))
}

func (o *Orchestrator) publish(uid, event string, payload map[string]interface{}) {
	if o.realtime == nil {
		return
	}
	if err := o.realtime.PublishUserEvent(uid, event, payload); err != nil {
		log.Printf("orchestrator: failed to publish %s for %s: %v", event, uid, err)
	}
}

func normalizeParams(params *generation.Params) error {
	if params.UID == "" || params.Prompt == "" {
		return errs.ErrInvalidParams
	}
	if params.ImageCount <= 0 {
		params.ImageCount = 1
	}
	if params.ImageCount > maxImageCount {
		params.ImageCount = maxImageCount
	}
	if len(params.ReferenceImages) > maxImageCount {
		params.ReferenceImages = params.ReferenceImages[:maxImageCount]
	}
	switch params.ResponseFormat {
	case "":
		params.ResponseFormat = generation.FormatURL
	case generation.FormatURL, generation.FormatBase64:
	default:
		return errs.ErrInvalidParams
	}
	return nil
}

// imageString normalizes provider output to a single string: a URL, or a data
// URI when the provider returned inline base64.
func imageString(d imagegen.ImageData) string {
	if d.URL != "" {
		return d.URL
	}
	if d.B64JSON != "" {
		return "data:image/png;base64," + d.B64JSON
	}
	return ""
}

func firstImage(resp *imagegen.GenerateResponse) string {
	for _, d := range resp.Data {
		if img := imageString(d); img != "" {
			return img
		}
	}
	return ""
}
