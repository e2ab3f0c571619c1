package cache

import (
	"context"
	"strings"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

// ResponseCache stores finished answers keyed by the normalized question and
// the department it was scoped to.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*buildingModel.Answer, error)
	Set(ctx context.Context, key string, answer *buildingModel.Answer) error
	Ping(ctx context.Context) error
}

// Key normalizes a question so that trivial variations of whitespace and case
// hit the same entry. The department is part of the key because the same
// question scoped to another department has a different answer.
func Key(question, department string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	return "chat:" + department + ":" + normalized
}
