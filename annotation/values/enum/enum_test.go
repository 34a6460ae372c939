package enum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/values/enum"
)

func TestPropertyValues(t *testing.T) {
	t.Parallel()

	schema := annotation.NewSchema(&annotation.Declaration{
		Name:       `App\Annotation\Cache`,
		Annotation: true,
		Fields: []annotation.Field{
			{Name: "driver", Doc: `/** @Enum({"redis", "memcached"}) */`},
			{Name: "value", Doc: `/** @Enum({"short", "long"}) */`},
			{Name: "ttl", Doc: "/** @var int */"},
			{Name: "plain"},
		},
	})

	tcs := map[string]struct {
		ref  annotation.PropertyRef
		want []string
	}{
		"named property": {
			ref:  annotation.PropertyRef{Schema: schema, Property: "driver", Kind: annotation.RequestString},
			want: []string{"redis", "memcached"},
		},
		"default value": {
			ref:  annotation.PropertyRef{Schema: schema, Kind: annotation.RequestDefault},
			want: []string{"short", "long"},
		},
		"no enum tag": {
			ref:  annotation.PropertyRef{Schema: schema, Property: "ttl", Kind: annotation.RequestString},
			want: nil,
		},
		"no documentation": {
			ref:  annotation.PropertyRef{Schema: schema, Property: "plain", Kind: annotation.RequestString},
			want: nil,
		},
		"unknown property": {
			ref:  annotation.PropertyRef{Schema: schema, Property: "missing", Kind: annotation.RequestString},
			want: nil,
		},
	}

	p, err := enum.New().ForProject(nil)
	assert.NoError(t, err)

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, p.PropertyValues(tc.ref, annotation.Extras{}))
		})
	}
}
