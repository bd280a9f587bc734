package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/georgemunganga/product-store/internal/client"
	"github.com/georgemunganga/product-store/internal/modules/catalog"
	"github.com/georgemunganga/product-store/internal/modules/preference"
	"github.com/georgemunganga/product-store/internal/obs"
	"github.com/spf13/pflag"
)

const usage = `usage: catalogctl [--addr URL] [--prefs FILE] <command>

commands:
  products list
  products get ID
  products create --name NAME --image URL --price AMOUNT
  products update ID --name NAME --image URL --price AMOUNT
  products delete ID
  theme [get]
  theme set NAME
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "catalogctl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("catalogctl", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	addr := flags.String("addr", envOr("CATALOG_ADDR", "http://localhost:3000"), "API base URL")
	prefs := flags.String("prefs", "", "preferences file (default: user config dir)")
	timeout := flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := flags.Parse(args); err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) == 0 {
		return errors.New("missing command\n" + usage)
	}

	switch rest[0] {
	case "products":
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		c := client.New(*addr, obs.NewLogger(os.Stderr, "warn"))
		return runProducts(ctx, c, rest[1:], out)
	case "theme":
		path := *prefs
		if path == "" {
			p, err := preference.DefaultFilePath("catalogctl")
			if err != nil {
				return err
			}
			path = p
		}
		return runTheme(preference.NewStore(preference.NewFileBackend(path)), rest[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%s", rest[0], usage)
	}
}

func runProducts(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("products: missing subcommand")
	}
	switch args[0] {
	case "list":
		products, err := c.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, products)
	case "get", "delete":
		if len(args) != 2 {
			return fmt.Errorf("products %s: expected ID", args[0])
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		var p *catalog.Product
		if args[0] == "get" {
			p, err = c.Get(ctx, id)
		} else {
			p, err = c.Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		return printJSON(out, p)
	case "create":
		in, err := parseProductInput(args[1:])
		if err != nil {
			return err
		}
		p, err := c.Create(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(out, p)
	case "update":
		if len(args) < 2 {
			return errors.New("products update: expected ID")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		in, err := parseProductInput(args[2:])
		if err != nil {
			return err
		}
		p, err := c.Update(ctx, id, in)
		if err != nil {
			return err
		}
		return printJSON(out, p)
	default:
		return fmt.Errorf("products: unknown subcommand %q", args[0])
	}
}

func parseProductInput(args []string) (catalog.ProductInput, error) {
	fs := pflag.NewFlagSet("product", pflag.ContinueOnError)
	name := fs.String("name", "", "product name")
	image := fs.String("image", "", "image URL")
	price := fs.String("price", "", "price, e.g. 19.99")
	if err := fs.Parse(args); err != nil {
		return catalog.ProductInput{}, err
	}
	in := catalog.ProductInput{Name: *name, Image: *image}
	if *price != "" {
		p, err := catalog.NewPrice(*price)
		if err != nil {
			return catalog.ProductInput{}, fmt.Errorf("invalid --price %q", *price)
		}
		in.Price = &p
	}
	return in, nil
}

func runTheme(store *preference.Store, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "get" {
		theme, err := store.Get()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, theme)
		return nil
	}
	if args[0] != "set" || len(args) != 2 {
		return errors.New("theme: expected get or set NAME")
	}
	if err := store.Set(args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, args[1])
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
