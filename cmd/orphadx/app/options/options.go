// Package options provides the flags of the diagnosis server.
package options

import (
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/orphadx-io/orphadx/internal/diagnosis"
	"github.com/orphadx-io/orphadx/pkg/app"
	"github.com/orphadx-io/orphadx/pkg/app/cliflag"
	cacheopts "github.com/orphadx-io/orphadx/pkg/options/cache"
	diagopts "github.com/orphadx-io/orphadx/pkg/options/diagnosis"
	llmopts "github.com/orphadx-io/orphadx/pkg/options/llm"
	logopts "github.com/orphadx-io/orphadx/pkg/options/logger"
	milvusopts "github.com/orphadx-io/orphadx/pkg/options/milvus"
	httpopts "github.com/orphadx-io/orphadx/pkg/options/server/http"
)

var _ app.CliOptions = (*ServerOptions)(nil)

// ServerOptions contains the configuration of the diagnosis server.
type ServerOptions struct {
	HTTPOptions      *httpopts.Options        `json:"http" mapstructure:"http"`
	LogOptions       *logopts.Options         `json:"log" mapstructure:"log"`
	MilvusOptions    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	ChatOptions      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	DiagnosisOptions *diagopts.Options        `json:"diagnosis" mapstructure:"diagnosis"`
	CacheOptions     *cacheopts.Options       `json:"cache" mapstructure:"cache"`
	ShutdownTimeout  time.Duration            `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		DiagnosisOptions: diagopts.NewOptions(),
		CacheOptions:     cacheopts.NewOptions(),
		ShutdownTimeout:  30 * time.Second,
	}
}

// Flags returns the flags grouped into named flag sets.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.ChatOptions.AddFlags(fss.FlagSet("chat"), "chat")
	o.DiagnosisOptions.AddFlags(fss.FlagSet("diagnosis"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))

	misc := fss.FlagSet("misc")
	misc.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return err
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return err
	}
	if o.CacheOptions.Redis != nil {
		if err := o.CacheOptions.Redis.Complete(); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates all the options.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.MilvusOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.DiagnosisOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds the server configuration from the options.
func (o *ServerOptions) Config() (*diagnosis.Config, error) {
	return &diagnosis.Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		MilvusOptions:    o.MilvusOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		DiagnosisOptions: o.DiagnosisOptions,
		CacheOptions:     o.CacheOptions,
		ShutdownTimeout:  o.ShutdownTimeout,
	}, nil
}
