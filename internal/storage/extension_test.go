package storage

import (
	"encoding/json"
	"testing"

	"github.com/pixil98/go-testutil"
)

type counter struct {
	Seen  int `json:"seen"`
	Right int `json:"right"`
}

func TestExtensionState_SetGet(t *testing.T) {
	tests := map[string]struct {
		initial  ExtensionState
		key      string
		value    any
		expErr   string
		expFound bool
	}{
		"set on nil map":      {initial: nil, key: "history", value: counter{Seen: 2}, expFound: true},
		"overwrite":           {initial: ExtensionState{"history": json.RawMessage(`{"seen":9}`)}, key: "history", value: counter{Seen: 1}, expFound: true},
		"unmarshalable value": {initial: ExtensionState{}, key: "bad", value: make(chan int), expErr: "marshal extension"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := tt.initial
			err := e.Set(tt.key, tt.value)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got counter
			found, err := e.Get(tt.key, &got)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "found", found, tt.expFound)
			testutil.AssertEqual(t, "value", got, tt.value.(counter))
		})
	}
}

func TestExtensionState_GetMissingAndCorrupt(t *testing.T) {
	var none ExtensionState
	found, err := none.Get("history", &counter{})
	testutil.AssertEqual(t, "nil found", found, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := ExtensionState{"history": json.RawMessage(`"text"`)}
	found, err = bad.Get("history", &counter{})
	testutil.AssertEqual(t, "corrupt found", found, true)
	testutil.AssertErrorContains(t, err, "unmarshal extension")

	bad.Delete("history")
	found, _ = bad.Get("history", &counter{})
	testutil.AssertEqual(t, "deleted", found, false)
}

func TestExtension_Update(t *testing.T) {
	const history Extension[map[string]counter] = "history"

	var e ExtensionState
	for _, right := range []bool{true, false, true} {
		err := history.Update(&e, func(m *map[string]counter) {
			if *m == nil {
				*m = map[string]counter{}
			}
			c := (*m)["q1"]
			c.Seen++
			if right {
				c.Right++
			}
			(*m)["q1"] = c
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := history.Load(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "q1", got["q1"], counter{Seen: 3, Right: 2})
}
