// Package dedup finds exact and near-duplicate case records.
//
// Detection runs in two phases. Records whose raw text has the same SHA-256
// digest are exact duplicates (similarity 1.0) whatever the threshold. Every
// remaining pair is then compared by SimHash similarity. The near phase is a
// full pairwise scan, O(n²) in the number of indexed records; past roughly
// 10^5 records it should be replaced by an LSH bucket index that reports the
// same pairs.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/steveyegge/caseqa/internal/fingerprint"
	"github.com/steveyegge/caseqa/internal/logging"
	"github.com/steveyegge/caseqa/internal/metrics"
	"github.com/steveyegge/caseqa/internal/types"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned by FindSimilar for ids that were never added.
var ErrNotFound = errors.New("case not in index")

// Detection methods reported on a DuplicatePair.
const (
	MethodExact = "exact"
	MethodNear  = "near"
)

// DuplicatePair is two case ids judged to be duplicates.
type DuplicatePair struct {
	IDA        string  `json:"id_a"`
	IDB        string  `json:"id_b"`
	Similarity float64 `json:"similarity"`
	Method     string  `json:"method"`
}

func (p DuplicatePair) String() string {
	return fmt.Sprintf("%s <-> %s (%.1f%% similar, %s)", p.IDA, p.IDB, p.Similarity*100, p.Method)
}

// Stats summarizes the detector index.
type Stats struct {
	TotalIndexed         int     `json:"total_indexed"`
	ExactDuplicateGroups int     `json:"exact_duplicate_groups"`
	Threshold            float64 `json:"threshold"`
	HashBits             int     `json:"hash_bits"`
}

type pairKey struct {
	a, b string
}

// canonical orders two ids so the smaller comes first.
func canonical(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Detector indexes case texts and reports duplicate pairs. It is safe for
// concurrent use; writers are serialized by the detector's own lock.
type Detector struct {
	cfg    Config
	fp     *fingerprint.Fingerprinter
	logger *slog.Logger

	mu           sync.RWMutex
	order        []string // insertion order of ids
	fingerprints map[string]fingerprint.Fingerprint
	exactHashes  map[string]string
	records      map[string]types.CaseRecord
}

// New creates a detector. The config is validated first.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}
	fp, err := fingerprint.New(cfg.HashBits, cfg.NgramSize, true)
	if err != nil {
		return nil, err
	}
	return &Detector{
		cfg:          cfg,
		fp:           fp,
		logger:       logging.New("dedup"),
		fingerprints: make(map[string]fingerprint.Fingerprint),
		exactHashes:  make(map[string]string),
		records:      make(map[string]types.CaseRecord),
	}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Add indexes one record under id, replacing any previous entry for that id.
// The exact digest is only stored for non-empty text.
func (d *Detector) Add(id string, record types.CaseRecord, textField string) {
	text := record.String(textField)
	fp := d.fp.Fingerprint(text)
	metrics.Fingerprints.Inc()

	var digest string
	if text != "" {
		sum := sha256.Sum256([]byte(text))
		digest = hex.EncodeToString(sum[:])
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.fingerprints[id]; !exists {
		d.order = append(d.order, id)
	}
	d.fingerprints[id] = fp
	d.records[id] = record
	if digest != "" {
		d.exactHashes[id] = digest
	} else {
		delete(d.exactHashes, id)
	}
}

// AddBatch indexes every record that has a non-empty id and returns how many
// were added.
func (d *Detector) AddBatch(records []types.CaseRecord, idField, textField string) int {
	added := 0
	for _, record := range records {
		id := types.ValueString(record.Get(idField))
		if id == "" {
			continue
		}
		d.Add(id, record, textField)
		added++
	}
	return added
}

// FindDuplicates reports duplicate pairs at the configured threshold.
func (d *Detector) FindDuplicates() []DuplicatePair {
	return d.FindDuplicatesAt(d.cfg.Threshold)
}

// FindDuplicatesAt reports every exact pair plus every other pair whose
// SimHash similarity is at least threshold. Each unordered pair appears once,
// smaller id first, sorted by similarity descending.
func (d *Detector) FindDuplicatesAt(threshold float64) []DuplicatePair {
	start := time.Now()

	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[pairKey]bool)
	var duplicates []DuplicatePair

	// Phase 1: exact digests
	for _, group := range d.exactGroups() {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				key := canonical(group[i], group[j])
				if seen[key] {
					continue
				}
				seen[key] = true
				duplicates = append(duplicates, DuplicatePair{
					IDA:        key.a,
					IDB:        key.b,
					Similarity: 1.0,
					Method:     MethodExact,
				})
			}
		}
	}
	exact := len(duplicates)

	// Phase 2: pairwise SimHash. Row i owns the pairs (i, j>i), so every
	// unordered pair is visited by exactly one goroutine and seen is read-only.
	ids := d.order
	rows := make([][]DuplicatePair, len(ids))
	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)
	for i := range ids {
		g.Go(func() error {
			for j := i + 1; j < len(ids); j++ {
				key := canonical(ids[i], ids[j])
				if seen[key] {
					continue
				}
				sim := d.fp.Similarity(d.fingerprints[ids[i]], d.fingerprints[ids[j]])
				if sim >= threshold {
					rows[i] = append(rows[i], DuplicatePair{
						IDA:        key.a,
						IDB:        key.b,
						Similarity: sim,
						Method:     MethodNear,
					})
				}
			}
			return nil
		})
	}
	_ = g.Wait() // rows never fail

	for _, row := range rows {
		duplicates = append(duplicates, row...)
	}

	sort.SliceStable(duplicates, func(i, j int) bool {
		return duplicates[i].Similarity > duplicates[j].Similarity
	})

	near := len(duplicates) - exact
	metrics.DuplicatePairs.WithLabelValues(MethodExact).Add(float64(exact))
	metrics.DuplicatePairs.WithLabelValues(MethodNear).Add(float64(near))
	metrics.StageDuration.WithLabelValues("dedup").Observe(time.Since(start).Seconds())
	d.logger.Debug("duplicate scan complete",
		"indexed", len(ids),
		"exact", exact,
		"near", near,
		"threshold", threshold,
		"duration", time.Since(start))

	return duplicates
}

// exactGroups groups ids by exact digest, in insertion order. Callers must
// hold the read lock.
func (d *Detector) exactGroups() [][]string {
	byDigest := make(map[string][]string)
	var digests []string
	for _, id := range d.order {
		digest, ok := d.exactHashes[id]
		if !ok {
			continue
		}
		if _, seen := byDigest[digest]; !seen {
			digests = append(digests, digest)
		}
		byDigest[digest] = append(byDigest[digest], id)
	}

	var groups [][]string
	for _, digest := range digests {
		if group := byDigest[digest]; len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

// FindSimilar returns the topK indexed cases most similar to id, best first.
// Every result uses method "near" with id as IDA.
func (d *Detector) FindSimilar(id string, topK int) ([]DuplicatePair, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	target, ok := d.fingerprints[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if topK <= 0 {
		return []DuplicatePair{}, nil
	}

	similar := make([]DuplicatePair, 0, len(d.order))
	for _, other := range d.order {
		if other == id {
			continue
		}
		similar = append(similar, DuplicatePair{
			IDA:        id,
			IDB:        other,
			Similarity: d.fp.Similarity(target, d.fingerprints[other]),
			Method:     MethodNear,
		})
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})
	if len(similar) > topK {
		similar = similar[:topK]
	}
	return similar, nil
}

// Record returns the record indexed under id.
func (d *Detector) Record(id string) (types.CaseRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.records[id]
	return r, ok
}

// Stats returns index statistics.
func (d *Detector) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Stats{
		TotalIndexed:         len(d.fingerprints),
		ExactDuplicateGroups: len(d.exactGroups()),
		Threshold:            d.cfg.Threshold,
		HashBits:             d.cfg.HashBits,
	}
}

// Len returns the number of indexed records.
func (d *Detector) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.fingerprints)
}

// Clear empties the index.
func (d *Detector) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.order = nil
	d.fingerprints = make(map[string]fingerprint.Fingerprint)
	d.exactHashes = make(map[string]string)
	d.records = make(map[string]types.CaseRecord)
}
