package validation

import (
	"testing"
)

func TestValidateEntry_Valid(t *testing.T) {
	v, err := NewEntryValidator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}
	payload := []byte(`{
  "entry_type": 4,
  "patient_ref_bytes": [1,2,3],
  "visit_date": "2025-06-01",
  "provider_specialty": "cardiology",
  "visit_type": "consultation",
  "status": "submitted",
  "content_hash": "abc123",
  "revoked": false
}`)
	if err := v.ValidateEntry(payload); err != nil {
		t.Errorf("expected valid entry, got error: %v", err)
	}
}

func TestValidateEntry_MissingEntryType(t *testing.T) {
	v, err := NewEntryValidator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}
	if err := v.ValidateEntry([]byte(`{"visit_date": "2025-06-01"}`)); err == nil {
		t.Error("expected error for missing entry_type, got nil")
	}
}

func TestValidateEntry_WrongTypes(t *testing.T) {
	v, err := NewEntryValidator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}
	if err := v.ValidateEntry([]byte(`{"entry_type": "visit"}`)); err == nil {
		t.Error("expected error for string entry_type, got nil")
	}
	if err := v.ValidateEntry([]byte(`{"entry_type": 1, "revoked": "yes"}`)); err == nil {
		t.Error("expected error for string revoked flag, got nil")
	}
}
