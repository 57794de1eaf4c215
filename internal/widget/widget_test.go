package widget

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ONSdigital/sdx-survey-sync/internal/client"
	"github.com/ONSdigital/sdx-survey-sync/internal/markdown"
	"github.com/ONSdigital/sdx-survey-sync/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptEditor returns an editor whose "program" is a shell snippet; the
// edited file is $0.
func scriptEditor(t *testing.T, script string, opts ...EditorOption) *TextEditor {
	t.Helper()
	var out bytes.Buffer
	opts = append(opts, WithStdio(strings.NewReader(""), &out, &out))
	e, err := NewTextEditorArgs([]string{"sh", "-c", script}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestTextEditorIndentsJSON(t *testing.T) {
	e := scriptEditor(t, "true", WithHeader("survey s1"))
	e.SetText(`{"title":"T"}`)
	assert.Equal(t, "// survey s1\n{\n  \"title\": \"T\"\n}\n", e.Text())
}

func TestTextEditorKeepsNonJSONText(t *testing.T) {
	e := scriptEditor(t, "true")
	e.SetText("plain")
	assert.Equal(t, "plain", e.Text())
}

func TestTextEditorEditRunsSaveHandler(t *testing.T) {
	e := scriptEditor(t, `printf '{"title":"T2"}' > "$0"`)
	e.SetText(`{"title":"T"}`)

	saves := 0
	var seen string
	e.OnSave(func() {
		saves++
		seen = e.Text()
	})

	require.NoError(t, e.Edit(context.Background()))
	assert.Equal(t, 1, saves)
	assert.Equal(t, `{"title":"T2"}`, seen)
}

func TestTextEditorFailedProgramDoesNotSave(t *testing.T) {
	e := scriptEditor(t, "exit 3")
	e.SetText(`{}`)
	e.OnSave(func() { t.Fatal("save handler must not run") })

	assert.Error(t, e.Edit(context.Background()))
}

func TestTextEditorClose(t *testing.T) {
	e, err := NewTextEditorArgs([]string{"true"})
	require.NoError(t, err)
	path := e.Path()
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, e.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, e.Close())
}

func TestNewTextEditorFallsBackToEnvironment(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano -w")
	e, err := NewTextEditor("")
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, []string{"nano", "-w"}, e.command)
}

func TestTextEditorInEditingSession(t *testing.T) {
	e := scriptEditor(t, `sed -i 's/"T"/"T2"/' "$0"`, WithHeader("survey s1"))

	store := &oneSurveyStore{def: client.Definition(`{"title":"T"}`)}
	var notices []session.Notice
	s := session.NewEditing(store, e, session.NotifierFunc(func(n session.Notice) {
		notices = append(notices, n)
	}), locatorFor("s1"), nil)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, e.Edit(context.Background()))

	assert.Equal(t, `{"title":"T2"}`, string(store.saved))
	require.Len(t, notices, 1)
	assert.Equal(t, session.NoticeSaved, notices[0].Kind)
}

func TestAnswerModel(t *testing.T) {
	m, err := NewAnswerModel(client.Definition(`{"title":"Retail **sales**","pages":[]}`))
	require.NoError(t, err)

	m.Set("q1", "42")
	m.Set("q2", "free text")
	m.Set("q3", `["a","b"]`)
	m.ApplyAnswer("q4", true)

	assert.Equal(t, client.AnswerSet{
		"q1": 42.0,
		"q2": "free text",
		"q3": []interface{}{"a", "b"},
		"q4": true,
	}, m.Data())
}

func TestAnswerModelDataIsACopy(t *testing.T) {
	m, err := NewAnswerModel(client.Definition(`{}`))
	require.NoError(t, err)
	m.ApplyAnswer("q1", "a")

	data := m.Data()
	data["q1"] = "changed"
	assert.Equal(t, "a", m.Data()["q1"])
}

func TestAnswerModelRejectsNonObject(t *testing.T) {
	_, err := Renderer{}.NewModel(client.Definition(`[1,2]`))
	assert.Error(t, err)
}

func TestAnswerModelComplete(t *testing.T) {
	m, err := NewAnswerModel(client.Definition(`{}`))
	require.NoError(t, err)
	m.Merge(client.AnswerSet{"q1": "a"})

	var got client.AnswerSet
	m.OnComplete(func(data client.AnswerSet) { got = data })
	m.Complete()

	assert.Equal(t, client.AnswerSet{"q1": "a"}, got)
}

func TestAnswerModelRenderUsesTransform(t *testing.T) {
	m, err := NewAnswerModel(client.Definition(`{"title":"Retail **sales**"}`))
	require.NoError(t, err)
	m.RegisterTextTransform(markdown.InlineHTML)
	m.ApplyAnswer("b", 2)
	m.ApplyAnswer("a", "x")

	var buf bytes.Buffer
	require.NoError(t, m.Render(&buf))
	assert.Equal(t, "Retail <strong>sales</strong>\n  a = \"x\"\n  b = 2\n", buf.String())
}

func TestAnswerModelTitleTransformError(t *testing.T) {
	m, err := NewAnswerModel(client.Definition(`{"title":"T"}`))
	require.NoError(t, err)
	m.RegisterTextTransform(func(string) (string, error) { return "", errors.New("bad") })

	assert.Error(t, m.Render(&bytes.Buffer{}))
}

func TestAnswerModelNonStringTitle(t *testing.T) {
	m, err := NewAnswerModel(client.Definition(`{"title":{"en":"T","cy":"T"}}`))
	require.NoError(t, err)
	title, err := m.Title()
	require.NoError(t, err)
	assert.Empty(t, title)
}

func TestPrintNotifier(t *testing.T) {
	var out, errOut bytes.Buffer
	n := PrintNotifier{Out: &out, Err: &errOut}

	n.Notify(session.Notice{Kind: session.NoticeSaved})
	n.Notify(session.Notice{Kind: session.NoticeSaveFailed, Err: errors.New("boom")})

	assert.Equal(t, "saved\n", out.String())
	assert.Equal(t, "failed to save: boom\n", errOut.String())
}
