package main

import (
	"os"

	"github2file/internal/cli"
	artifactrepo "github2file/internal/repository/artifact"
	"github2file/internal/scan"
)

const defaultOutputDir = "repos"

// source reads target as a local checkout when it is a directory and as a
// GitHub or GitLab URL otherwise.
func (a *app) source(target string) scan.Source {
	opts := scan.Options{
		Language:     a.cfg.Language,
		KeepComments: a.cfg.KeepComments,
		Logger:       a.logger,
	}
	if fi, err := os.Stat(target); err == nil && fi.IsDir() {
		return scan.LocalSource{Root: target, Options: opts}
	}
	return scan.ArchiveSource{URL: target, Ref: a.cfg.Branch, Token: a.cfg.Token, Options: opts}
}

// openStore returns the configured sink and the name to store the artifact
// under. The file sink honors --output; remote sinks key by run ID and name.
func (a *app) openStore(name string) (artifactrepo.Store, string, func() error, error) {
	noop := func() error { return nil }
	switch a.cfg.Sink {
	case "s3":
		s3 := a.cfg.S3
		store, err := artifactrepo.NewS3Store(artifactrepo.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			Bucket:    s3.Bucket,
			UseSSL:    s3.UseSSL,
		})
		if err != nil {
			return nil, "", nil, err
		}
		return store, name, noop, nil
	case "postgres":
		store, err := artifactrepo.OpenPostgresStore(a.cfg.Postgres.DSN)
		if err != nil {
			return nil, "", nil, err
		}
		return store, name, store.Close, nil
	}
	dir, file := cli.SplitOutput(a.cfg.Output, defaultOutputDir, name)
	return artifactrepo.NewFlatFileStore(dir), file, noop, nil
}
