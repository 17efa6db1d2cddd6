package events

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRecipients(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		expected []string
	}{
		{"vendor only", map[string]any{"vendor_id": "v1", "promotion_id": "p1"}, []string{"v1"}},
		{"vendor and vlogger", map[string]any{"vendor_id": "v1", "vlogger_id": "l1"}, []string{"v1", "l1"}},
		{"empty values", map[string]any{"vendor_id": "", "vlogger_id": 42}, nil},
		{"no payload", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Event{Type: EventPostReviewed, Payload: tt.payload}.Recipients()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Recipients() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEventJSONShape(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventPromotionStatusChanged, Payload: map[string]any{"new_status": "cancelled"}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"promotion_status_changed","payload":{"new_status":"cancelled"}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
