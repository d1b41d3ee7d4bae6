package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/swimteam-scheduler/internal/application"
)

type rosterStub struct {
	existing []application.Member
	created  []application.MemberInput
}

func (r *rosterStub) ListMembers(ctx context.Context) ([]application.Member, error) {
	return r.existing, nil
}

func (r *rosterStub) CreateMember(ctx context.Context, input application.MemberInput) (application.Member, error) {
	r.created = append(r.created, input)
	return application.Member{ID: int64(len(r.created)), Name: input.Name, Order: input.Order}, nil
}

func TestParse(t *testing.T) {
	t.Run("reads names and explicit orders", func(t *testing.T) {
		file, err := Parse(strings.NewReader("members:\n  - name: Aoi\n    order: 1\n  - name: Ben\n    order: 2\n"))
		require.NoError(t, err)
		require.Len(t, file.Members, 2)
		assert.Equal(t, MemberEntry{Name: "Aoi", Order: 1}, file.Members[0])
		assert.Equal(t, MemberEntry{Name: "Ben", Order: 2}, file.Members[1])
	})

	t.Run("assigns sequential orders when omitted", func(t *testing.T) {
		file, err := Parse(strings.NewReader("members:\n  - name: Aoi\n  - name: Ben\n  - name: Chika\n    order: 10\n  - name: Dai\n"))
		require.NoError(t, err)
		orders := []int{file.Members[0].Order, file.Members[1].Order, file.Members[2].Order, file.Members[3].Order}
		assert.Equal(t, []int{1, 2, 10, 11}, orders)
	})

	t.Run("rejects nameless members", func(t *testing.T) {
		_, err := Parse(strings.NewReader("members:\n  - order: 1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no name")
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := Parse(strings.NewReader("members:\n  - name: Aoi\n    lane: 4\n"))
		require.Error(t, err)
	})
}

func TestApply(t *testing.T) {
	t.Run("creates every entry on an empty roster", func(t *testing.T) {
		roster := &rosterStub{}
		file := File{Members: []MemberEntry{{Name: "Aoi", Order: 1}, {Name: "Ben", Order: 2}}}

		created, err := Apply(context.Background(), roster, file, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, created)
		require.Len(t, roster.created, 2)
		assert.Equal(t, application.MemberInput{Name: "Aoi", Order: 1}, roster.created[0])
	})

	t.Run("skips a populated roster", func(t *testing.T) {
		roster := &rosterStub{existing: []application.Member{{ID: 1, Name: "Aoi", Order: 1}}}
		file := File{Members: []MemberEntry{{Name: "Ben", Order: 2}}}

		created, err := Apply(context.Background(), roster, file, nil)
		require.NoError(t, err)
		assert.Zero(t, created)
		assert.Empty(t, roster.created)
	})
}
