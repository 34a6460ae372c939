package yamlcatalog_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/values/yamlcatalog"
	"go.jacobcolvin.com/annotate/stringtest"
)

var catalog = stringtest.Input(`
	schemas:
	  App\Annotation\Cache:
	    default: [short, long]
	    properties:
	      driver: [redis, memcached]
	  \app\annotation\route:
	    properties:
	      methods: [GET, POST]
`)

func schema(name string) *annotation.Schema {
	return annotation.NewSchema(&annotation.Declaration{Name: name, Annotation: true})
}

func TestPropertyValues(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		".annotate.yaml": {Data: []byte(catalog)},
	}

	p, err := yamlcatalog.New().ForProject(fsys)
	require.NoError(t, err)

	tcs := map[string]struct {
		ref  annotation.PropertyRef
		want []string
	}{
		"property": {
			ref:  annotation.PropertyRef{Schema: schema(`App\Annotation\Cache`), Property: "driver"},
			want: []string{"redis", "memcached"},
		},
		"default": {
			ref:  annotation.PropertyRef{Schema: schema(`App\Annotation\Cache`), Kind: annotation.RequestDefault},
			want: []string{"short", "long"},
		},
		"case insensitive name": {
			ref:  annotation.PropertyRef{Schema: schema(`App\Annotation\Route`), Property: "methods"},
			want: []string{"GET", "POST"},
		},
		"unknown property": {
			ref:  annotation.PropertyRef{Schema: schema(`App\Annotation\Cache`), Property: "ttl"},
			want: nil,
		},
		"unknown schema": {
			ref:  annotation.PropertyRef{Schema: schema(`App\Other`), Property: "driver"},
			want: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, p.PropertyValues(tc.ref, annotation.Extras{}))
		})
	}
}

func TestForProject(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fsys fstest.MapFS
		opts []yamlcatalog.Option
		err  error
	}{
		"missing catalog": {
			fsys: fstest.MapFS{},
		},
		"custom path": {
			fsys: fstest.MapFS{"config/values.yaml": {Data: []byte(catalog)}},
			opts: []yamlcatalog.Option{yamlcatalog.WithPath("config/values.yaml")},
		},
		"invalid catalog": {
			fsys: fstest.MapFS{".annotate.yaml": {Data: []byte("schemas: [unclosed")}},
			err:  yamlcatalog.ErrInvalidCatalog,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			proto := yamlcatalog.New(tc.opts...)

			p, err := proto.ForProject(tc.fsys)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)
			assert.NotSame(t, proto, p)
			assert.Equal(t, "yaml-catalog", p.Name())
		})
	}
}
