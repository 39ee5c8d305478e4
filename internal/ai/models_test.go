package ai

import "testing"

func TestMergeCatalog(t *testing.T) {
	MergeCatalog(map[string]ModelInfo{
		"local-test-model": {ContextTokens: 32768, Notes: "local runtime"},
	})
	mi, ok := LookupModel("local-test-model")
	if !ok {
		t.Fatal("merged model not found")
	}
	if mi.Name != "local-test-model" {
		t.Errorf("merged entry should inherit its key as Name, got %q", mi.Name)
	}
	if mi.ContextTokens != 32768 {
		t.Errorf("context tokens = %d, want 32768", mi.ContextTokens)
	}

	found := false
	for _, m := range ListModels() {
		if m.Name == "local-test-model" {
			found = true
		}
	}
	if !found {
		t.Error("merged model missing from ListModels")
	}
}
