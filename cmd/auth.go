package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxtriage/internal/config"
	"github.com/teemow/inboxtriage/internal/google"
)

func newAuthCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize inboxtriage to use your Google account",
		Long: `Print the Google consent URL, then store the token obtained from the
authorization code. After approving access the browser is redirected to
http://localhost; copy the "code" query parameter from the address bar.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(globalOpts.envFile)
			if err != nil {
				return err
			}
			if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
				return fmt.Errorf("%s and %s must be set", config.EnvGoogleClientID, config.EnvGoogleClientSecret)
			}

			store := google.NewTokenStore(config.CacheDir())
			auth := google.NewAuthenticator(google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret), store)

			return runAuth(cmd.Context(), auth, store.Path(), code, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code; prompted for when omitted")
	return cmd
}

type codeExchanger interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
}

func runAuth(ctx context.Context, auth codeExchanger, tokenPath, code string, in io.Reader, out io.Writer) error {
	if code == "" {
		fmt.Fprintln(out, "Visit this URL to authorize inboxtriage:")
		fmt.Fprintln(out)
		fmt.Fprintln(out, auth.AuthURL(uuid.NewString()))
		fmt.Fprintln(out)
		fmt.Fprint(out, "Authorization code: ")

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading authorization code: %w", err)
		}
		code = line
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	if err := auth.Exchange(ctx, code); err != nil {
		return err
	}

	fmt.Fprintf(out, "Token stored in %s\n", tokenPath)
	return nil
}
