// Package qasvc provides the resume QA server implementation.
package qasvc

import (
	"github.com/kart-io/resume-qa/pkg/infra/tracing"
	llmopts "github.com/kart-io/resume-qa/pkg/options/llm"
	logopts "github.com/kart-io/resume-qa/pkg/options/logger"
	milvusopts "github.com/kart-io/resume-qa/pkg/options/milvus"
	qaopts "github.com/kart-io/resume-qa/pkg/options/qa"
	redisopts "github.com/kart-io/resume-qa/pkg/options/redis"
	httpopts "github.com/kart-io/resume-qa/pkg/options/server/http"
)

// Name is the name of the application.
const Name = "resume-qa"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	MilvusOptions    *milvusopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ProviderOptions
	RedisOptions     *redisopts.Options
	QAOptions        *qaopts.Options
	TracingOptions   *tracing.Options
}
