package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/curriculum"
	"github.com/sigma-teacher/tutor/internal/oracle"
	"github.com/sigma-teacher/tutor/internal/platform/config"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

const domainJSON = `{
  "topics": [
    {"name": "Frações", "explanation": "Partes de um inteiro.", "exercise": "Quanto é 1/2 + 1/2?"},
    {"name": "MMC", "explanation": "O menor múltiplo comum.", "exercise": "Qual o MMC de 4 e 6?"}
  ],
  "recommended_sequence": ["Frações", "MMC"]
}`

func evaluation(topic, verdict string, comprehension int) string {
	return fmt.Sprintf(`{"evaluated_topic": %q, "verdict": %q, "comprehension": %d, "rationale": "ok"}`, topic, verdict, comprehension)
}

func feedback(message, action string) string {
	return fmt.Sprintf(`{"message": %q, "next_action": %q}`, message, action)
}

// useOracle swaps the command oracle for a scripted one.
func useOracle(t *testing.T, responses ...string) *ai.MockProvider {
	t.Helper()
	mock := ai.NewScriptedProvider(responses...)
	prev := newOracle
	newOracle = func(context.Context, *config.Config) (tutor.DocumentOracle, error) {
		return oracle.New(mock), nil
	}
	t.Cleanup(func() { newOracle = prev })
	t.Setenv("ITS_TUTOR_REASSESS", "false")
	return mock
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildDomain(t *testing.T) {
	mock := useOracle(t, domainJSON)

	out, err := execute(t, "", "build-domain", "--text", "Aula sobre frações", "--topics", "2", "--id", "fracoes")
	if err != nil {
		t.Fatalf("build-domain error = %v", err)
	}

	doc, err := curriculum.ParseDomain(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a curriculum: %v\n%s", err, out)
	}
	if doc.ID != "fracoes" || len(doc.Topics) != 2 || doc.Sequence[1] != "MMC" {
		t.Errorf("document = %+v", doc)
	}
	prompt := mock.LastRequest.Messages[len(mock.LastRequest.Messages)-1].Content
	if !strings.Contains(prompt, "Aula sobre frações") {
		t.Errorf("prompt missing source text: %q", prompt)
	}
}

func TestBuildDomain_ToFileFromTextFile(t *testing.T) {
	useOracle(t, domainJSON)
	dir := t.TempDir()
	src := filepath.Join(dir, "aula.md")
	if err := os.WriteFile(src, []byte("# Frações"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "fracoes.yaml")

	if _, err := execute(t, "", "build-domain", "--file", src, "--out", dst); err != nil {
		t.Fatalf("build-domain error = %v", err)
	}
	doc, err := curriculum.LoadDomain(dst)
	if err != nil {
		t.Fatalf("LoadDomain() error = %v", err)
	}
	if len(doc.Topics) != 2 {
		t.Errorf("topics = %d, want 2", len(doc.Topics))
	}
}

func TestBuildDomain_Errors(t *testing.T) {
	useOracle(t, `{"topics": [], "recommended_sequence": []}`)

	if _, err := execute(t, "", "build-domain"); err == nil {
		t.Error("build-domain without material should fail")
	}
	if _, err := execute(t, "", "build-domain", "--text", "nada"); err == nil {
		t.Error("build-domain with no topics should fail")
	}
}

func TestChat_CompletesCourse(t *testing.T) {
	useOracle(t,
		evaluation("MMC", "correct", 90), feedback("Muito bem!", "advance"),
	)
	path := filepath.Join(t.TempDir(), "mmc.yaml")
	yaml := "id: mmc\ntopics:\n  - name: MMC\n    explanation: O menor múltiplo comum.\n    exercise: Qual o MMC de 4 e 6?\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "12\n\nok\n", "chat", "--domain", path)
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	for _, want := range []string{
		"Olá! Vamos começar.",
		"Exercício: Qual o MMC de 4 e 6?",
		"Muito bem!",
		"Parabéns! Você dominou todos os tópicos deste material.",
		"Progresso: 100.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestChat_Quit(t *testing.T) {
	mock := useOracle(t, domainJSON)

	out, err := execute(t, "/sair\n", "chat", "--text", "frações")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "Tópico: Frações") || !strings.Contains(out, "Progresso: 0.0%") {
		t.Errorf("output = %s", out)
	}
	if mock.Calls() != 1 {
		t.Errorf("oracle calls = %d, want 1", mock.Calls())
	}
}

func TestChat_NoMaterial(t *testing.T) {
	useOracle(t)
	if _, err := execute(t, "", "chat"); err == nil {
		t.Error("chat without material should fail")
	}
}

func TestExport_RequiresDatabase(t *testing.T) {
	t.Setenv("ITS_DATABASE_URL", "")
	if _, err := execute(t, "", "export", "s-1"); err == nil || !strings.Contains(err.Error(), "ITS_DATABASE_URL") {
		t.Errorf("export error = %v", err)
	}
	if _, err := execute(t, "", "export"); err == nil {
		t.Error("export without an id should fail")
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"aula.pdf":   "application/pdf",
		"QUADRO.PNG": "image/png",
		"foto.jpeg":  "image/jpeg",
		"notas.md":   "text/markdown",
		"aula.txt":   "text/plain",
	}
	for path, want := range tests {
		if got := mimeType(path); got != want {
			t.Errorf("mimeType(%q) = %q, want %q", path, got, want)
		}
	}
}
