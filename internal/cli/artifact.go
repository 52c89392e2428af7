package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DennisG8153/apkfeat/internal/artifact"
)

func (c *CLI) bucket() (*artifact.S3Bucket, error) {
	s3 := c.cfg.S3
	if !s3.Configured() {
		return nil, fmt.Errorf("artifact store not configured: set APKFEAT_S3_ENDPOINT, APKFEAT_S3_ACCESS_KEY and APKFEAT_S3_SECRET_KEY")
	}
	return artifact.NewS3Bucket(artifact.S3Config{
		Endpoint:  s3.Endpoint,
		Region:    s3.Region,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		UseSSL:    s3.UseSSL,
	})
}

func (c *CLI) newPublishCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "publish <corpus>",
		Short: "Upload a corpus vocabulary to S3-compatible storage",
		Args:  cobra.ExactArgs(1),
		Example: `  apkfeat publish data-reduced --name 2024-06-benign-malicious`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.bucket()
			if err != nil {
				return err
			}
			key, err := artifact.Publish(cmd.Context(), b, name, args[0])
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Artifact name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *CLI) newFetchCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "fetch <name> <dest>",
		Short: "Download a published vocabulary",
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		Example: `  apkfeat fetch --list
  apkfeat fetch 2024-06-benign-malicious model`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.bucket()
			if err != nil {
				return err
			}
			if list {
				names, err := artifact.List(cmd.Context(), b)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Println(n)
				}
				return nil
			}
			_, err = artifact.Fetch(cmd.Context(), b, args[0], args[1])
			return err
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List published vocabularies")
	return cmd
}
