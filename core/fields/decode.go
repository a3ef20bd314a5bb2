package fields

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"medvault/core/ledger"
	"medvault/core/validation"
)

// Kind discriminates the decoded variants of a dynamic field.
type Kind int

const (
	KindGeneric Kind = iota
	KindTimelineEntry
	KindDepositPool
)

func (k Kind) String() string {
	switch k {
	case KindTimelineEntry:
		return "timeline_entry"
	case KindDepositPool:
		return "deposit_pool"
	default:
		return "generic"
	}
}

// Key-type markers written by the vault contract. Classification happens in
// exactly one place so a contract rename is a one-line change.
const (
	timelineEntryKeyMarker = "TimelineEntryKey"
	depositPoolKeyMarker   = "DepositPool"
)

func classifyKey(typeRepr string) Kind {
	switch {
	case strings.Contains(typeRepr, timelineEntryKeyMarker):
		return KindTimelineEntry
	case strings.Contains(typeRepr, depositPoolKeyMarker):
		return KindDepositPool
	default:
		return KindGeneric
	}
}

// TimelineEntry is a decoded medical-encounter record.
type TimelineEntry struct {
	ID                string `json:"id"`
	ObjectID          string `json:"objectId"`
	LinkedObjectID    string `json:"linkedObjectId,omitempty"`
	LinkedVersion     uint64 `json:"linkedVersion,omitempty"`
	LinkedDigest      string `json:"linkedDigest,omitempty"`
	PatientRef        []byte `json:"patientRefBytes"`
	TimestampMs       uint64 `json:"timestampMs"`
	EntryType         int    `json:"entryType"`
	EntryTypeName     string `json:"entryTypeName"`
	VisitDate         string `json:"visitDate"`
	ProviderSpecialty string `json:"providerSpecialty"`
	VisitType         string `json:"visitType"`
	Status            string `json:"status"`
	ContentHash       string `json:"contentHash"`
	BlobID            string `json:"blobId"`
	CreatedAt         uint64 `json:"createdAt"`
	Revoked           bool   `json:"revoked"`
}

// TimestampKnown reports whether the entry carries a real timestamp. A zero
// value means the key's binary encoding was short or undecodable, not epoch.
func (e TimelineEntry) TimestampKnown() bool {
	return e.TimestampMs != 0
}

// DepositPool is a decoded escrow record tied to one timeline entry.
type DepositPool struct {
	ID              string `json:"id"`
	ObjectID        string `json:"objectId"`
	TimelineEntryID string `json:"timelineEntryId"`
	PatientRef      []byte `json:"patientRefBytes"`
	Creator         string `json:"creator"`
	Balance         uint64 `json:"balance"`
	Active          bool   `json:"active"`
}

// DecodedField is the tagged union produced for every dynamic-field node.
// Exactly one of Entry/Pool is set for the matching kind; Generic fields
// keep the raw node for completeness but are never interpreted.
type DecodedField struct {
	Kind  Kind
	Entry *TimelineEntry
	Pool  *DepositPool
	Raw   ledger.DynamicFieldNode
}

// Decoder classifies and decodes dynamic-field nodes. A nil validator skips
// the schema gate.
type Decoder struct {
	validator *validation.EntryValidator
}

func NewDecoder(validator *validation.EntryValidator) *Decoder {
	return &Decoder{validator: validator}
}

// Decode classifies one node and decodes it into its variant. Any decode
// failure demotes the node to Generic rather than failing the caller: one
// malformed field must not abort a whole timeline fetch.
func (d *Decoder) Decode(node ledger.DynamicFieldNode) DecodedField {
	switch classifyKey(node.Name.Type.Repr) {
	case KindTimelineEntry:
		entry, err := d.decodeEntry(node)
		if err != nil {
			return DecodedField{Kind: KindGeneric, Raw: node}
		}
		return DecodedField{Kind: KindTimelineEntry, Entry: entry, Raw: node}
	case KindDepositPool:
		pool, err := decodePool(node)
		if err != nil {
			return DecodedField{Kind: KindGeneric, Raw: node}
		}
		return DecodedField{Kind: KindDepositPool, Pool: pool, Raw: node}
	default:
		return DecodedField{Kind: KindGeneric, Raw: node}
	}
}

// timestampFromBCS recovers the key timestamp from its raw binary encoding:
// the trailing 8 bytes are a little-endian u64 of milliseconds since epoch.
// Short or undecodable input yields 0 ("timestamp unknown").
func timestampFromBCS(b64 string) uint64 {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(raw[len(raw)-8:])
}

// selectPayload picks the value projection that carries the discriminating
// attribute: the inline JSON first, then the nested object's content. Some
// ledger states store the field value as a pointer to a separate object.
func selectPayload(value ledger.DynamicFieldValue, discriminator string) json.RawMessage {
	if hasKey(value.JSON, discriminator) {
		return value.JSON
	}
	if len(value.Contents) > 0 && hasKey(value.Contents[0].JSON, discriminator) {
		return value.Contents[0].JSON
	}
	return nil
}

func hasKey(raw json.RawMessage, key string) bool {
	if len(raw) == 0 {
		return false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, ok := probe[key]
	return ok
}

// entryValueJSON mirrors the contract's entry value projection.
type entryValueJSON struct {
	PatientRefBytes   ledger.ByteArray `json:"patient_ref_bytes"`
	EntryType         *int             `json:"entry_type"`
	VisitDate         string           `json:"visit_date"`
	ProviderSpecialty string           `json:"provider_specialty"`
	VisitType         string           `json:"visit_type"`
	Status            string           `json:"status"`
	ContentHash       string           `json:"content_hash"`
	BlobID            ledger.ByteArray `json:"walrus_blob_id"`
	CreatedAt         uint64           `json:"created_at"`
	Revoked           bool             `json:"revoked"`
}

func (d *Decoder) decodeEntry(node ledger.DynamicFieldNode) (*TimelineEntry, error) {
	var key struct {
		PatientRefBytes ledger.ByteArray `json:"patient_ref_bytes"`
	}
	if len(node.Name.JSON) > 0 {
		if err := json.Unmarshal(node.Name.JSON, &key); err != nil {
			return nil, fmt.Errorf("invalid entry key json: %w", err)
		}
	}
	timestampMs := timestampFromBCS(node.Name.BCS)

	payload := selectPayload(node.Value, "entry_type")
	if payload == nil {
		return nil, fmt.Errorf("entry value missing entry_type discriminator")
	}
	if d.validator != nil {
		if err := d.validator.ValidateEntry(payload); err != nil {
			return nil, err
		}
	}
	var v entryValueJSON
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("invalid entry value json: %w", err)
	}
	entryType := 0
	if v.EntryType != nil {
		entryType = *v.EntryType
	}
	patientRef := []byte(key.PatientRefBytes)
	if len(patientRef) == 0 {
		patientRef = []byte(v.PatientRefBytes)
	}
	createdAt := v.CreatedAt
	if createdAt == 0 {
		createdAt = timestampMs
	}
	return &TimelineEntry{
		ID:                fmt.Sprintf("%s-%d", node.Value.Address, timestampMs),
		ObjectID:          node.Value.Address,
		LinkedObjectID:    node.Value.Address,
		LinkedVersion:     node.Value.Version,
		LinkedDigest:      node.Value.Digest,
		PatientRef:        patientRef,
		TimestampMs:       timestampMs,
		EntryType:         entryType,
		EntryTypeName:     EntryTypeName(entryType),
		VisitDate:         v.VisitDate,
		ProviderSpecialty: v.ProviderSpecialty,
		VisitType:         v.VisitType,
		Status:            v.Status,
		ContentHash:       v.ContentHash,
		BlobID:            string(v.BlobID),
		CreatedAt:         createdAt,
		Revoked:           v.Revoked,
	}, nil
}

type poolValueJSON struct {
	TimelineEntryID *string          `json:"timeline_entry_id"`
	PatientRefBytes ledger.ByteArray `json:"patient_ref_bytes"`
	Creator         string           `json:"creator"`
	Balance         uint64           `json:"balance"`
	Active          bool             `json:"active"`
}

func decodePool(node ledger.DynamicFieldNode) (*DepositPool, error) {
	payload := selectPayload(node.Value, "timeline_entry_id")
	if payload == nil {
		return nil, fmt.Errorf("pool value missing timeline_entry_id discriminator")
	}
	var v poolValueJSON
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("invalid pool value json: %w", err)
	}
	entryID := ""
	if v.TimelineEntryID != nil {
		entryID = *v.TimelineEntryID
	}
	return &DepositPool{
		ID:              fmt.Sprintf("%s-%s", node.Value.Address, entryID),
		ObjectID:        node.Value.Address,
		TimelineEntryID: entryID,
		PatientRef:      []byte(v.PatientRefBytes),
		Creator:         v.Creator,
		Balance:         v.Balance,
		Active:          v.Active,
	}, nil
}

// canonicalEntryJSON is the field layout of a referenced entry object's
// canonical content, fetched during enrichment.
type canonicalEntryJSON struct {
	PatientRefBytes   ledger.ByteArray `json:"patient_ref_bytes"`
	EntryType         *int             `json:"entry_type"`
	VisitDate         *string          `json:"visit_date"`
	ProviderSpecialty *string          `json:"provider_specialty"`
	VisitType         *string          `json:"visit_type"`
	Status            *string          `json:"status"`
	ContentHash       *string          `json:"content_hash"`
	BlobID            ledger.ByteArray `json:"walrus_blob_id"`
	CreatedAt         *uint64          `json:"created_at"`
	Revoked           *bool            `json:"revoked"`
}

// MergeCanonical overwrites provisional entry fields with canonical ones
// from a referenced object's content, field by field. Canonical values win;
// absent canonical fields keep the provisional value.
func MergeCanonical(provisional TimelineEntry, canonical json.RawMessage) (TimelineEntry, error) {
	var c canonicalEntryJSON
	if err := json.Unmarshal(canonical, &c); err != nil {
		return provisional, fmt.Errorf("invalid canonical entry json: %w", err)
	}
	out := provisional
	if len(c.PatientRefBytes) > 0 {
		out.PatientRef = []byte(c.PatientRefBytes)
	}
	if c.EntryType != nil {
		out.EntryType = *c.EntryType
		out.EntryTypeName = EntryTypeName(*c.EntryType)
	}
	if c.VisitDate != nil {
		out.VisitDate = *c.VisitDate
	}
	if c.ProviderSpecialty != nil {
		out.ProviderSpecialty = *c.ProviderSpecialty
	}
	if c.VisitType != nil {
		out.VisitType = *c.VisitType
	}
	if c.Status != nil {
		out.Status = *c.Status
	}
	if c.ContentHash != nil {
		out.ContentHash = *c.ContentHash
	}
	if len(c.BlobID) > 0 {
		out.BlobID = string(c.BlobID)
	}
	if c.CreatedAt != nil {
		out.CreatedAt = *c.CreatedAt
	}
	if c.Revoked != nil {
		out.Revoked = *c.Revoked
	}
	return out, nil
}
