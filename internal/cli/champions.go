package cli

import (
	"context"
	"fmt"

	"github.com/Sternrassler/lol-series-fetcher/pkg/cache"
	"github.com/Sternrassler/lol-series-fetcher/pkg/ddragon"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// exampleChampions are shown after a fetch to spot-check the name mapping.
var exampleChampions = []string{"Kai'Sa", "K'Sante", "Rek'Sai", "Nunu & Willump", "Renata Glasc"}

type ChampionsOptions struct {
	GlobalOptions

	Dest    string
	Version string
}

func DefaultChampionsOptions() *ChampionsOptions {
	return &ChampionsOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdChampions() *cobra.Command {
	o := DefaultChampionsOptions()
	cmd := &cobra.Command{
		Use:   "champions",
		Short: "Download Data Dragon champion reference tables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ChampionsOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Dest, "dest", o.Dest, "Directory for the reference files (default: the output directory)")
	fs.StringVar(&o.Version, "version", o.Version, "Data Dragon version (default: latest)")
}

func (o *ChampionsOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	if o.Dest == "" {
		o.Dest = o.OutputRoot()
	}
	return nil
}

func (o *ChampionsOptions) Run(ctx context.Context, args []string) error {
	cfg := ddragon.DefaultConfig()
	cfg.BaseURL = o.Config.DDragon.BaseURL
	if o.Config.Redis.TTL > 0 {
		cfg.CacheTTL = o.Config.Redis.TTL
	}

	if o.Config.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     o.Config.Redis.Addr,
			Password: o.Config.Redis.Password,
			DB:       o.Config.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			o.Logger.Warn().Err(err).Str("addr", o.Config.Redis.Addr).Msg("Redis unavailable, fetching without cache")
		} else {
			cfg.Cache = cache.NewManager(rdb)
		}
	}

	c, err := ddragon.New(cfg)
	if err != nil {
		return fmt.Errorf("creating data dragon client: %w", err)
	}

	version := o.Version
	if version == "" {
		if version, err = c.LatestVersion(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintf(o.Out, "Data Dragon version: %s\n", version)

	data, err := c.Champions(ctx, version)
	if err != nil {
		return err
	}
	champions := ddragon.BuildMapping(data, version, c.BaseURL())
	gridMap := ddragon.GridNameMapping(champions)
	fmt.Fprintf(o.Out, "Champions: %d\n", len(champions))

	paths, err := ddragon.WriteOutputs(o.Dest, version, champions, gridMap)
	if err != nil {
		return err
	}

	t := newTable(o.Out)
	t.SetTitle("Example mappings")
	t.AppendHeader(table.Row{"GRID name", "Riot key"})
	for _, name := range exampleChampions {
		key, ok := gridMap[name]
		if !ok {
			key = "(missing)"
		}
		t.AppendRow(table.Row{name, key})
	}
	t.Render()

	fmt.Fprintln(o.Out, "\nWritten:")
	for _, p := range paths {
		fmt.Fprintf(o.Out, "  %s\n", p)
	}
	return nil
}
