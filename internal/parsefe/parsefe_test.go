package parsefe

import "testing"

func TestSupports(t *testing.T) {
	cases := map[string]bool{
		"main.go": true, "index.ts": true, "app.tsx": true,
		"util.js": true, "comp.jsx": true, "README.md": false, "data.json": false,
	}
	for path, want := range cases {
		if got := Supports(path); got != want {
			t.Errorf("Supports(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse("notes.txt", []byte("hello"))
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestParse_DispatchesToGoFrontEnd(t *testing.T) {
	src := []byte("package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")
	result, err := Parse("hello.go", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Symbols) != 1 || result.Symbols[0].Name != "Hello" {
		t.Fatalf("expected single Hello symbol, got %+v", result.Symbols)
	}
}
