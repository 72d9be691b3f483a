package masktrie

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/templex-go/templex/path"
)

func grants() *Trie {
	return FromPaths(
		path.MustParse("Name"),
		path.MustParse("Amount"),
		path.MustParse("Center.IsActive"),
		path.MustParse("Center.Manager.Email"),
	)
}

func TestTrieContains(t *testing.T) {
	trie := grants()
	cases := []struct {
		path string
		want bool
	}{
		{"Name", true},
		{"Amount", true},
		{"Center", true},
		{"Center.IsActive", true},
		{"Center.Manager", true},
		{"Center.Manager.Email", true},
		{"Center.Name", false},
		{"Name.Length", false},
		{"Center.Manager.Email.Domain", false},
		{"Secret", false},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			assert.Equal(t, c.want, trie.Contains(path.MustParse(c.path)))
		})
	}
	assert.False(t, trie.Contains(path.Path{}))
}

func TestTrieLeafIsExactDepth(t *testing.T) {
	granted := path.MustParse("Center.Manager.Email")
	trie := FromPaths(granted)
	require.True(t, trie.Contains(granted))

	parent, ok := granted.Parent()
	require.True(t, ok)
	// Dropping the terminal segment of the grant revokes the path.
	revoked := FromPaths(parent)
	assert.False(t, revoked.Contains(granted))
	assert.True(t, revoked.Contains(parent))
}

func TestTrieEqualityIsStructural(t *testing.T) {
	built := grants()
	manual := New(map[string]*Trie{
		"Amount": nil,
		"Name":   Leaf(),
		"Center": New(map[string]*Trie{
			"IsActive": Leaf(),
			"Manager": New(map[string]*Trie{
				"Email": nil,
			}),
		}),
	})

	assert.NotSame(t, built, manual)
	assert.True(t, built.Equal(manual))
	assert.True(t, manual.Equal(built))
	assert.Equal(t, built.Hash(), manual.Hash())
}

func TestTrieOneSegmentDifference(t *testing.T) {
	a := FromPaths(path.MustParse("Center.Manager.Email"))
	b := FromPaths(path.MustParse("Center.Manager.Phone"))
	c := FromPaths(path.MustParse("Center.Manager"))

	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, c.Equal(a))
	assert.False(t, a.Equal(nil))
	assert.True(t, Comparer{}.Equal(nil, nil))
}

func TestTrieHashIgnoresInsertionOrder(t *testing.T) {
	a := FromPaths(path.MustParse("A.B"), path.MustParse("C"), path.MustParse("A.D"))
	b := FromPaths(path.MustParse("A.D"), path.MustParse("A.B"), path.MustParse("C"))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.True(t, a.Equal(b))
}

func TestTriePaths(t *testing.T) {
	trie := grants()
	got := trie.Paths()
	want := []path.Path{
		path.MustParse("Amount"),
		path.MustParse("Center.IsActive"),
		path.MustParse("Center.Manager.Email"),
		path.MustParse("Name"),
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b path.Path) bool { return a == b })); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, FromPaths(got...).Equal(trie))
}

func TestTrieNavigation(t *testing.T) {
	trie := grants()
	assert.Equal(t, []string{"Amount", "Center", "Name"}, trie.Segments())
	assert.Equal(t, 3, trie.Len())

	center, ok := trie.Child("Center")
	require.True(t, ok)
	assert.False(t, center.IsLeaf())

	name, ok := trie.Child("Name")
	require.True(t, ok)
	assert.True(t, name.IsLeaf())

	_, ok = trie.Child("Secret")
	assert.False(t, ok)
}
