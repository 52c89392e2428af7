package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const (
	releaseSlug = "DennisG8153/apkfeat"
	// checksumAsset lists the SHA-256 sums of every release archive.
	checksumAsset = "checksums.txt"
)

func (c *CLI) newUpCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Self-update to the latest release",
		Example: `  apkfeat up --check
  apkfeat up`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.selfUpdate(cmd.Context(), check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Only report whether a newer release exists")
	return cmd
}

// installedVersion returns the running version as semver. Development and
// otherwise unparsable builds compare as 0.0.0 so any release is newer.
func installedVersion(v string) string {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return "0.0.0"
	}
	return parsed.String()
}

func (c *CLI) selfUpdate(ctx context.Context, check bool) error {
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: checksumAsset},
	})
	if err != nil {
		return err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(releaseSlug))
	if err != nil {
		return fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release of %s for this platform", releaseSlug)
	}

	if latest.LessOrEqual(installedVersion(c.version)) {
		fmt.Printf("Already up to date (%s)\n", c.version)
		return nil
	}
	if check {
		fmt.Printf("Release %s is available (installed %s)\n", latest.Version(), c.version)
		return nil
	}

	slog.Info("Updating", "from", c.version, "to", latest.Version(), "asset", latest.AssetName)
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	fmt.Printf("Updated to %s\n", latest.Version())
	return nil
}
