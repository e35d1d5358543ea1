package fileref

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	upload := Upload{Name: "new-cert.pdf", Data: []byte("%PDF")}

	tests := []struct {
		name      string
		current   Ref
		persisted *string
		want      *string
	}{
		{name: "untouched keeps persisted", current: None(), persisted: strPtr("cert.pdf"), want: strPtr("cert.pdf")},
		{name: "untouched without persisted is null", current: None(), persisted: nil, want: nil},
		{name: "untouched with blank persisted is null", current: None(), persisted: strPtr(""), want: nil},
		{name: "pending upload transmits its name", current: FromUpload(upload), persisted: strPtr("cert.pdf"), want: strPtr("new-cert.pdf")},
		{name: "explicit clear transmits null", current: Cleared(), persisted: strPtr("cert.pdf"), want: nil},
		{name: "persisted value wins over baseline", current: FromPersisted("other.pdf"), persisted: strPtr("cert.pdf"), want: strPtr("other.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.current, tt.persisted)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestRefKinds(t *testing.T) {
	assert.Equal(t, Empty, None().Kind())
	assert.False(t, None().IsCleared())
	assert.True(t, Cleared().IsCleared())
	assert.Equal(t, Empty, FromPersisted("").Kind())
	assert.Equal(t, Persisted, FromPersisted("a.pdf").Kind())

	r := FromUpload(Upload{Name: "a.pdf"})
	assert.Equal(t, Pending, r.Kind())
	assert.Equal(t, "a.pdf", r.Name())
	require.NotNil(t, r.Upload())
	assert.Equal(t, "pending", r.Kind().String())
}

func TestSlot_CommitCycle(t *testing.T) {
	s := NewSlot(strPtr("cert.pdf"))
	assert.Equal(t, "cert.pdf", *s.Value())
	assert.Nil(t, s.Pending())
	assert.Equal(t, Persisted, s.Display().Kind())

	s.Set(Upload{Name: "cert-v2.pdf", Data: []byte("x")})
	assert.Equal(t, "cert-v2.pdf", *s.Value())
	require.NotNil(t, s.Pending())
	assert.Equal(t, Pending, s.Display().Kind())

	s.Commit()
	assert.Nil(t, s.Pending())
	assert.Equal(t, Empty, s.Current().Kind())
	assert.Equal(t, "cert-v2.pdf", *s.Value())

	s.Clear()
	assert.Nil(t, s.Value())
	s.Commit()
	assert.Nil(t, s.Value())
}

func TestListSlot_UntouchedKeepsPersisted(t *testing.T) {
	l := NewListSlot("directorIds", 0, []string{"a.pdf", "", "b.pdf"})
	assert.Equal(t, DefaultMaxListItems, l.Max())
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, l.Value())
	assert.Len(t, l.Items(), 2)
	assert.Empty(t, l.Pending())
}

func TestListSlot_AddCapsAndWarns(t *testing.T) {
	l := NewListSlot("directorIds", 3, []string{"a.pdf"})

	warn := l.Add(Upload{Name: "b.pdf"})
	assert.Nil(t, warn)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, l.Value())

	warn = l.Add(Upload{Name: "c.pdf"}, Upload{Name: "d.pdf"}, Upload{Name: "e.pdf"})
	require.NotNil(t, warn)
	assert.Equal(t, 2, warn.Discarded)
	assert.Equal(t, 3, warn.Max)
	assert.Equal(t, "directorIds accepts at most 3 files; 2 discarded", warn.String())
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, l.Value())

	pending := l.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "b.pdf", pending[0].Name)
}

func TestListSlot_TenItemBound(t *testing.T) {
	l := NewListSlot("directorIds", DefaultMaxListItems, nil)
	uploads := make([]Upload, 12)
	for i := range uploads {
		uploads[i] = Upload{Name: fmt.Sprintf("id-%02d.pdf", i)}
	}
	warn := l.Add(uploads...)
	require.NotNil(t, warn)
	assert.Equal(t, 2, warn.Discarded)
	assert.Len(t, l.Value(), DefaultMaxListItems)
}

func TestListSlot_RemoveAndClear(t *testing.T) {
	l := NewListSlot("directorIds", 10, []string{"a.pdf", "b.pdf", "c.pdf"})
	l.Remove(1)
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, l.Value())
	l.Remove(7)
	assert.Equal(t, []string{"a.pdf", "c.pdf"}, l.Value())

	l.Clear()
	assert.Equal(t, []string{}, l.Value())

	l.Commit()
	assert.Equal(t, []string{}, l.Value())
	assert.Empty(t, l.Items())
}

func TestListSlot_CommitDropsPending(t *testing.T) {
	l := NewListSlot("directorIds", 10, nil)
	l.Add(Upload{Name: "a.pdf"})
	l.Commit()
	assert.Empty(t, l.Pending())
	assert.Equal(t, []string{"a.pdf"}, l.Value())
}

func TestSlot_CommitSentKeepsLaterChange(t *testing.T) {
	s := NewSlot(nil)
	s.Set(Upload{Name: "v1.pdf"})
	sent := s.Snapshot()

	s.Set(Upload{Name: "v2.pdf"})
	s.CommitSent(sent)
	require.NotNil(t, s.Pending())
	assert.Equal(t, "v2.pdf", s.Pending().Name)

	s.Clear()
	sent = s.Snapshot()
	s.CommitSent(sent)
	assert.Nil(t, s.Value())
	assert.Nil(t, s.Pending())

	s = NewSlot(nil)
	s.Set(Upload{Name: "v1.pdf"})
	sent = s.Snapshot()
	s.Clear()
	s.CommitSent(sent)
	assert.Nil(t, s.Value(), "clear made after the snapshot still wins")
	s.Commit()
	assert.Nil(t, s.Value())
}

func TestListSlot_CommitSentKeepsLaterAdds(t *testing.T) {
	l := NewListSlot("directorIds", 10, nil)
	l.Add(Upload{Name: "a.pdf"})
	sent := l.Snapshot()

	l.Add(Upload{Name: "b.pdf"})
	l.CommitSent(sent)

	pending := l.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "b.pdf", pending[0].Name)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, l.Value())
	assert.Equal(t, Persisted, l.Items()[0].Kind())
}
