package parsefe

import "testing"

const tsSample = `import { Logger } from "./logger";

/**
 * Handles incoming auth requests.
 */
export class AuthController {
  private logger: Logger;

  handleLogin(req: Request): Response {
    this.logger.info("login");
    return this.build(req);
  }

  private build(req: Request): Response {
    return new Response();
  }
}

export function validateToken(token: string): boolean {
  return token.length > 0;
}

function internalHelper(): void {}
`

func TestTypeScriptFrontEnd_ExtractsSymbols(t *testing.T) {
	fe := NewTypeScriptFrontEnd()
	result, err := fe.Parse("auth.ts", []byte(tsSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	byName := make(map[string]Symbol)
	for _, s := range result.Symbols {
		byName[s.QualifiedName] = s
	}

	ctrl, ok := byName["AuthController"]
	if !ok {
		t.Fatal("expected AuthController class symbol")
	}
	if ctrl.Kind != "class" || !ctrl.Exported {
		t.Fatalf("unexpected AuthController symbol: %+v", ctrl)
	}
	if ctrl.Documentation == "" {
		t.Fatal("expected JSDoc on AuthController")
	}

	handle, ok := byName["AuthController.handleLogin"]
	if !ok || handle.ParentName != "AuthController" {
		t.Fatalf("expected handleLogin method with parent AuthController, got %+v", handle)
	}

	validate, ok := byName["validateToken"]
	if !ok || !validate.Exported {
		t.Fatalf("expected exported validateToken function, got %+v", validate)
	}

	internal, ok := byName["internalHelper"]
	if !ok || internal.Exported {
		t.Fatalf("expected unexported internalHelper, got %+v", internal)
	}
}

func TestTypeScriptFrontEnd_ExtractsEdges(t *testing.T) {
	fe := NewTypeScriptFrontEnd()
	result, err := fe.Parse("auth.ts", []byte(tsSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var imports, calls int
	for _, e := range result.Edges {
		switch e.Kind {
		case "imports":
			imports++
			if e.Target != "./logger" {
				t.Fatalf("unexpected import target: %s", e.Target)
			}
		case "calls":
			calls++
		}
	}
	if imports != 1 {
		t.Fatalf("expected 1 import edge, got %d", imports)
	}
	if calls == 0 {
		t.Fatal("expected at least one call edge")
	}
}

func TestTypeScriptFrontEnd_UnsupportedExtension(t *testing.T) {
	fe := NewTypeScriptFrontEnd()
	_, err := fe.Parse("sample.py", []byte("print(1)"))
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
