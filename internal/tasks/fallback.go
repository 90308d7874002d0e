package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundry/soundry/internal/cache"
)

// ordinalSuffix is appended when only one title can be secured and a second
// must be synthesized from it. The original pipeline shipped this behavior
// for single-title cache hits; it is preserved here deliberately.
// TODO: revisit whether duplicating with a suffix is intended product
// behavior or a workaround for upstream shortfall.
const ordinalSuffix = " II"

// titleStrategy is one step in the prioritized title resolution chain.
// Attempt returns the titles it could secure; ok reports whether the chain
// should stop here.
type titleStrategy struct {
	name    string
	attempt func(ctx context.Context, req GenerateRequest) ([]string, bool)
}

// titleStrategies builds the engine's ordered fallback chain. The final
// deterministic step never fails, so title resolution always makes progress
// even with an empty pool, a cold cache, and an unreachable text service.
func (e *GenerationEngine) titleStrategies() []titleStrategy {
	return []titleStrategy{
		{name: "pool", attempt: e.titlesFromPool},
		{name: "cache", attempt: e.titlesFromCache},
		{name: "live", attempt: e.titlesFromService},
		{name: "fallback", attempt: e.titlesDeterministic},
	}
}

// resolveTitles walks the fallback chain until two titles are secured.
func (e *GenerationEngine) resolveTitles(ctx context.Context, req GenerateRequest) [2]string {
	for _, strategy := range e.titleStrategies() {
		titles, ok := strategy.attempt(ctx, req)
		if !ok {
			continue
		}
		if len(titles) == 1 {
			titles = append(titles, titles[0]+ordinalSuffix)
		}
		if len(titles) >= 2 && titles[0] != "" && titles[1] != "" {
			e.logger.Debug("titles resolved", "strategy", strategy.name, "first", titles[0])
			return [2]string{titles[0], titles[1]}
		}
	}

	// Unreachable: the deterministic step always succeeds.
	return [2]string{"Untitled", "Untitled" + ordinalSuffix}
}

// titlesFromPool draws from the pre-generated title pool. A single returned
// record is still a success; the chain duplicates it with the ordinal suffix.
func (e *GenerationEngine) titlesFromPool(ctx context.Context, req GenerateRequest) ([]string, bool) {
	if e.pool == nil {
		return nil, false
	}
	records, err := e.pool.Take(e.category, 2)
	if err != nil {
		e.logger.Warn("title pool unavailable", "err", err)
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}

	titles := make([]string, 0, len(records))
	for _, rec := range records {
		titles = append(titles, displayTitle(rec.ForeignText, rec.NativeText))
	}
	return titles, true
}

// titlesFromCache looks up a previously generated title batch keyed by the
// request's keywords, style and mood.
func (e *GenerationEngine) titlesFromCache(ctx context.Context, req GenerateRequest) ([]string, bool) {
	var batch cache.TitleBatch
	key := cache.Key(req.Keywords, req.Style, req.Mood)
	ok, err := e.store.GetJSON(cache.ServiceText, key, &batch)
	if err != nil || !ok || len(batch.Titles) == 0 {
		return nil, false
	}

	titles := make([]string, 0, 2)
	for _, title := range batch.Titles {
		if len(titles) == 2 {
			break
		}
		titles = append(titles, displayTitle(title.ForeignText, title.NativeText))
	}
	return titles, true
}

// titlesFromService asks the text service for exactly two fresh titles and
// caches the batch for future runs.
func (e *GenerationEngine) titlesFromService(ctx context.Context, req GenerateRequest) ([]string, bool) {
	if e.text == nil {
		return nil, false
	}

	generated, err := e.text.GenerateTitles(ctx, req.Keywords, req.Style, req.Mood, 2)
	if err != nil {
		e.store.RecordUsage(cache.ServiceText, false, 0)
		e.logger.Warn("live title generation failed", "err", err)
		return nil, false
	}
	e.store.RecordUsage(cache.ServiceText, true, len(generated))

	if len(generated) == 0 {
		return nil, false
	}

	batch := cache.TitleBatch{Keywords: req.Keywords, Style: req.Style, Mood: req.Mood}
	titles := make([]string, 0, len(generated))
	for _, title := range generated {
		batch.Titles = append(batch.Titles, cache.CachedTitle{
			NativeText:  title.NativeText,
			ForeignText: title.ForeignText,
		})
		titles = append(titles, displayTitle(title.ForeignText, title.NativeText))
	}

	key := cache.Key(req.Keywords, req.Style, req.Mood)
	if err := e.store.PutCompleted(cache.ServiceText, key, batch); err != nil {
		e.logger.Warn("failed to cache title batch", "err", err)
	}

	return titles, true
}

// titlesDeterministic builds two distinct titles from the first keyword
// token. This step cannot fail and guarantees forward progress.
func (e *GenerationEngine) titlesDeterministic(ctx context.Context, req GenerateRequest) ([]string, bool) {
	seed := req.Keywords
	if seed == "" {
		seed = req.Style
	}
	if seed == "" {
		seed = "sound"
	}
	token := strings.TrimSpace(strings.SplitN(seed, ",", 2)[0])
	if token == "" {
		token = "sound"
	}

	return []string{
		fmt.Sprintf("Melody of %s", token),
		fmt.Sprintf("Whispers of %s", token),
	}, true
}

// displayTitle prefers the foreign rendering when present.
func displayTitle(foreign, native string) string {
	if foreign != "" {
		return foreign
	}
	return native
}
