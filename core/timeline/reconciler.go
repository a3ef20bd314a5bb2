package timeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"medvault/core/fields"
	"medvault/core/ledger"
	"medvault/core/refhash"
)

// enrichConcurrency bounds the parallel secondary fetches in one resolve.
const enrichConcurrency = 8

// LedgerClient is the object-graph surface the reconciler needs.
type LedgerClient interface {
	GetWhitelistObject(ctx context.Context, id string) (*ledger.WhitelistObject, error)
	GetObjectSnapshot(ctx context.Context, id string) (*ledger.ObjectSnapshot, error)
}

// Options controls one resolve pass.
type Options struct {
	// FilterByReference keeps only entries whose reference bytes match the
	// requesting patient. Disabled for audit views that need everything.
	FilterByReference bool
	// Enrich re-fetches each entry's linked object for canonical fields.
	Enrich bool
}

func DefaultOptions() Options {
	return Options{FilterByReference: true}
}

// Reconciler turns a container object's raw dynamic fields into a
// consistent, privacy-filtered timeline view. It holds no mutable state
// across calls.
type Reconciler struct {
	client  LedgerClient
	decoder *fields.Decoder
}

func NewReconciler(client LedgerClient, decoder *fields.Decoder) *Reconciler {
	return &Reconciler{client: client, decoder: decoder}
}

// Resolve fetches, decodes, filters, orders and optionally enriches the
// timeline of one container for one patient. Privacy is a client-side
// guarantee here: the ledger returns every field to any caller, and only
// the byte-exact reference comparison keeps other patients' entries out.
func (r *Reconciler) Resolve(ctx context.Context, whitelistID, patientAddress string, opts Options) (*ReconciledView, error) {
	var patientRef refhash.Ref
	if opts.FilterByReference {
		ref, err := refhash.Hash(patientAddress)
		if err != nil {
			return nil, err
		}
		patientRef = ref
	}

	obj, err := r.client.GetWhitelistObject(ctx, whitelistID)
	if err != nil {
		return nil, err
	}

	var allEntries []fields.TimelineEntry
	var pools []fields.DepositPool
	var other []fields.DecodedField
	for _, node := range obj.DynamicFields {
		decoded := r.decoder.Decode(node)
		switch decoded.Kind {
		case fields.KindTimelineEntry:
			entry := *decoded.Entry
			if entry.ObjectID == "" {
				entry.ObjectID = obj.Address
				entry.ID = fmt.Sprintf("%s-%d", obj.Address, entry.TimestampMs)
			}
			allEntries = append(allEntries, entry)
		case fields.KindDepositPool:
			pools = append(pools, *decoded.Pool)
		default:
			other = append(other, decoded)
		}
	}

	// Newest first. Stable: equal timestamps keep source-collection order.
	sort.SliceStable(allEntries, func(i, j int) bool {
		return allEntries[i].TimestampMs > allEntries[j].TimestampMs
	})

	entries := allEntries
	if opts.FilterByReference {
		entries = nil
		for _, e := range allEntries {
			if patientRef.Equal(e.PatientRef) {
				entries = append(entries, e)
			}
		}
	}

	if opts.Enrich {
		entries = r.enrich(ctx, entries)
	}

	view := &ReconciledView{
		Whitelist: Container{
			Address: obj.Address,
			Version: obj.Version,
			Digest:  obj.Digest,
		},
		Entries:      entries,
		AllEntries:   allEntries,
		DepositPools: pools,
		OtherFields:  other,
		FetchedAt:    time.Now().UTC(),
	}
	if opts.FilterByReference {
		view.PatientRef = patientRef.Bytes()
	}
	return view, nil
}

// enrich re-fetches linked objects concurrently and merges canonical fields
// in place, preserving order. A failed fetch degrades that entry only: the
// provisional decode is kept unchanged.
func (r *Reconciler) enrich(ctx context.Context, entries []fields.TimelineEntry) []fields.TimelineEntry {
	out := make([]fields.TimelineEntry, len(entries))
	copy(out, entries)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range out {
		if out[i].LinkedObjectID == "" {
			continue
		}
		i := i
		g.Go(func() error {
			snap, err := r.client.GetObjectSnapshot(gctx, out[i].LinkedObjectID)
			if err != nil {
				log.Printf("[TIMELINE] enrichment failed for entry %s: %v", out[i].ID, err)
				return nil
			}
			merged, err := fields.MergeCanonical(out[i], snap.JSON)
			if err != nil {
				log.Printf("[TIMELINE] canonical merge failed for entry %s: %v", out[i].ID, err)
				return nil
			}
			merged.LinkedVersion = snap.Version
			merged.LinkedDigest = snap.Digest
			out[i] = merged
			return nil
		})
	}
	g.Wait()
	return out
}

// ResolveAll resolves several containers for one patient and merges the
// filtered entries into one globally ordered timeline. A failing container
// degrades to an empty contribution instead of failing the batch.
func (r *Reconciler) ResolveAll(ctx context.Context, whitelistIDs []string, patientAddress string, opts Options) ([]fields.TimelineEntry, error) {
	if _, err := refhash.Hash(patientAddress); err != nil {
		return nil, err
	}

	results := make([][]fields.TimelineEntry, len(whitelistIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, id := range whitelistIDs {
		i, id := i, id
		g.Go(func() error {
			view, err := r.Resolve(gctx, id, patientAddress, opts)
			if err != nil {
				log.Printf("[TIMELINE] resolve failed for container %s: %v", id, err)
				return nil
			}
			results[i] = view.Entries
			return nil
		})
	}
	g.Wait()

	var merged []fields.TimelineEntry
	for _, part := range results {
		merged = append(merged, part...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TimestampMs > merged[j].TimestampMs
	})
	return merged, nil
}
