package onto_test

import (
	"testing"

	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/remote"
	"github.com/stretchr/testify/require"
)

func TestAllocateID(t *testing.T) {
	t.Parallel()

	existing := []onto.Test{
		{ID: "CQ001", Type: onto.CompetencyQuestion},
		{ID: "CQ002", Type: onto.CompetencyQuestion},
		{ID: "EP001", Type: onto.ErrorProvocation},
	}

	cases := []struct {
		name     string
		tests    []onto.Test
		typ      onto.TestType
		prefixes onto.PrefixTable
		want     string
	}{
		{name: "next competency question", tests: existing, typ: onto.CompetencyQuestion, want: "CQ003"},
		{name: "next error provocation", tests: existing, typ: onto.ErrorProvocation, want: "EP002"},
		{name: "first of its type", tests: existing, typ: onto.GeneralConstraint, want: "GC001"},
		{name: "empty list", typ: onto.InferenceVerification, want: "IV001"},
		{
			name: "gaps use the max",
			tests: []onto.Test{
				{ID: "CQ007", Type: onto.CompetencyQuestion},
				{ID: "CQ003", Type: onto.CompetencyQuestion},
			},
			typ:  onto.CompetencyQuestion,
			want: "CQ008",
		},
		{
			name: "prefix with wrong recorded type is ignored",
			tests: []onto.Test{
				{ID: "CQ009", Type: onto.ErrorProvocation},
				{ID: "CQ001", Type: onto.CompetencyQuestion},
			},
			typ:  onto.CompetencyQuestion,
			want: "CQ002",
		},
		{
			name: "non numeric suffix is ignored",
			tests: []onto.Test{
				{ID: "CQabc", Type: onto.CompetencyQuestion},
			},
			typ:  onto.CompetencyQuestion,
			want: "CQ001",
		},
		{
			name:     "custom prefix",
			tests:    []onto.Test{{ID: "QQ004", Type: onto.CompetencyQuestion}},
			typ:      onto.CompetencyQuestion,
			prefixes: onto.DefaultPrefixes().With(map[onto.TestType]string{onto.CompetencyQuestion: "QQ"}),
			want:     "QQ005",
		},
		{
			name:  "past three digits",
			tests: []onto.Test{{ID: "EP999", Type: onto.ErrorProvocation}},
			typ:   onto.ErrorProvocation,
			want:  "EP1000",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := onto.AllocateID(tc.tests, tc.typ, tc.prefixes)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestAllocateID_UnknownType(t *testing.T) {
	t.Parallel()
	_, err := onto.AllocateID(nil, onto.TestType("BOGUS"), nil)
	require.ErrorIs(t, err, remote.ErrInvalid)
}
