package annotation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for engine configuration, allowing callers to
// customize flag names while keeping sensible defaults.
type Flags struct {
	Providers     string
	WrappedValues string
	StrictTargets string
	Disable       string
}

// Config holds CLI flag values for engine configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewEngine] to create an [Engine].
type Config struct {
	Flags         Flags
	Registry      Registry
	Providers     string
	WrappedValues bool
	StrictTargets bool
	Disable       bool
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Providers:     "providers",
		WrappedValues: "wrapped-values",
		StrictTargets: "strict-targets",
		Disable:       "disable",
	}

	return &Config{Flags: f, WrappedValues: true}
}

// RegisterFlags adds engine flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Providers, c.Flags.Providers, "p",
		"enum,defaults,yaml-catalog,schema-catalog",
		"comma-separated list of enabled value providers (in query order)")
	flags.BoolVar(&c.WrappedValues, c.Flags.WrappedValues, true,
		"treat text inside string literals as wrapped by the literal")
	flags.BoolVar(&c.StrictTargets, c.Flags.StrictTargets, false,
		"do not offer schemas with an unknown or undeclared target everywhere")
	flags.BoolVar(&c.Disable, c.Flags.Disable, false,
		"disable annotation completion")
}

// RegisterCompletions registers shell completions for engine flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	var names []string

	for name := range c.Registry {
		names = append(names, name)
	}

	slices.Sort(names)

	err := cmd.RegisterFlagCompletionFunc(c.Flags.Providers,
		cobra.FixedCompletions(names, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Providers, err)
	}

	return nil
}

// NewEngine creates an [Engine] using this [Config]. Options are applied
// after the configured ones, so callers supply the resolver, index, and
// logger here. Providers come back unprepared; see [Engine.ForProject].
func (c *Config) NewEngine(opts ...Option) (*Engine, error) {
	providers, err := c.parseProviderNames(c.Providers)
	if err != nil {
		return nil, err
	}

	all := []Option{
		WithProviders(providers...),
		WithWrappedValues(c.WrappedValues),
		WithStrictTargets(c.StrictTargets),
	}

	if c.Disable {
		all = append(all, WithGate(func(*Node) bool { return false }))
	}

	return NewEngine(append(all, opts...)...), nil
}

// parseProviderNames parses a comma-separated list of provider names and
// returns the corresponding Provider instances.
func (c *Config) parseProviderNames(names string) ([]Provider, error) {
	if names == "" {
		return nil, nil
	}

	parts := strings.Split(names, ",")
	providers := make([]Provider, 0, len(parts))

	for _, name := range parts {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		constructor, ok := c.Registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidOption, name)
		}

		providers = append(providers, constructor())
	}

	return providers, nil
}
