// Command keygen issues access keys straight into the configured storage,
// without going through the HTTP API. Storage is selected with the server
// flags (-r, -f, -d) or a -c config file.
//
//	keygen -product personas -count 10 -client "ACME" -r file -f data
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/ashdiag/internal/flagx"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ashdiag/internal/server/services"
)

type options struct {
	product  string
	count    int
	days     int
	client   string
	project  string
	asJSON   bool
	operator string
}

func parseOptions(args []string) (options, error) {
	args = flagx.FilterArgs(args, []string{"-product", "-count", "-days", "-client", "-project", "-json", "-by"})

	var o options
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.StringVar(&o.product, "product", "", "product: personas or empresas")
	fs.IntVar(&o.count, "count", 1, "number of keys to generate")
	fs.IntVar(&o.days, "days", 0, "validity in days (defaults to the configured value)")
	fs.StringVar(&o.client, "client", "", "client name stored with the keys")
	fs.StringVar(&o.project, "project", "", "project stored with the keys")
	fs.BoolVar(&o.asJSON, "json", false, "print keys as JSON")
	fs.StringVar(&o.operator, "by", "keygen", "generated_by value")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func run(ctx context.Context, cfg *config.Config, o options, out io.Writer) error {
	rm, err := repomanager.New(cfg.StorageDriver, cfg.DataDir, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer rm.Close()

	if err := rm.RunMigrations(ctx); err != nil {
		return err
	}

	svc := services.NewKeyService(rm.Keys(), cfg, logging.Nop())
	keys, err := svc.GenerateBatch(ctx, services.GenerateKeysRequest{
		Count:        o.count,
		Product:      o.product,
		ValidityDays: o.days,
		Client:       o.client,
		Project:      o.project,
		GeneratedBy:  o.operator,
	}, time.Now().UTC())
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}
	for _, k := range keys {
		fmt.Fprintf(out, "%s\t%s\tvalid until %s\n", k.Value, k.Product, k.ValidUntil.Format(time.RFC3339))
	}
	return nil
}

func main() {
	o, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	cfg := config.LoadConfig()

	if err := run(context.Background(), cfg, o, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
