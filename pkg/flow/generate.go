package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/furnace/go/furnace/pkg/tables"
	terrors "github.com/provide-io/furnace/go/furnace/pkg/tables/errors"
)

// LabelDynamicTable labels generated dynamic table artifacts.
const LabelDynamicTable = "DynamicTable"

// Generator turns the persisted flow into the next dynamic table file.
type Generator struct {
	store   *Store
	emitter *tables.Emitter
	logger  hclog.Logger
}

// NewGenerator creates a generator writing through emitter. The max action
// count comes from the store capacity.
func NewGenerator(store *Store, emitter *tables.Emitter, logger hclog.Logger) *Generator {
	return &Generator{
		store:   store,
		emitter: emitter,
		logger:  logger.Named("dynamic"),
	}
}

// Generate encodes every flow record under the current dynamic id, writes
// DT_<dddd>.bin and advances the dynamic id. The id only advances once the
// file is written. A missing dynamic_num row is seeded with 1.
func (g *Generator) Generate(ctx context.Context) (*tables.Artifact, error) {
	num, err := g.store.DynamicNum(ctx)
	if errors.Is(err, ErrNoDynamicNum) {
		g.logger.Info("🌱 Seeding dynamic id", "dynamic_id", 1)
		if err := g.store.SetDynamicID(ctx, 1); err != nil {
			return nil, err
		}
		num = DynamicNum{ID: dynamicNumRow, DynamicID: 1}
	} else if err != nil {
		return nil, err
	}

	records, err := g.store.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: experiment flow has no records", terrors.ErrEmptyContent)
	}

	content, err := BuildDynamicTable(num.DynamicID, g.store.Capacity(), records)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("🔢 Dynamic table encoded", "dynamic_id", num.DynamicID, "records", len(records))

	artifact, err := g.emitter.EmitNamed(LabelDynamicTable, DynamicTableName(num.DynamicID), content)
	if err != nil {
		return nil, err
	}
	if err := g.store.IncrementDynamicID(ctx); err != nil {
		return artifact, fmt.Errorf("advancing dynamic id: %w", err)
	}
	g.logger.Info("✅ Dynamic table generated", "dynamic_id", num.DynamicID, "path", artifact.Path)
	return artifact, nil
}
