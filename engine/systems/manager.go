package systems

import (
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer"
)

type SystemManagerConfig struct {
	ResourceTable ResourceTableConfig
	Images        ImageSystemConfig
}

type SystemManager struct {
	resourceTable *ResourceTable
	imageSystem   *ImageSystem
}

func NewSystemManager(config *SystemManagerConfig, r *renderer.Renderer, memory core.Allocator, metrics *core.TransferMetrics, events *core.EventSystem) (*SystemManager, error) {
	rt := NewResourceTable(&config.ResourceTable)
	is, err := NewImageSystem(&config.Images, rt, r, memory, metrics, events)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		resourceTable: rt,
		imageSystem:   is,
	}, nil
}

func (sm *SystemManager) ResourceTable() *ResourceTable {
	return sm.resourceTable
}

func (sm *SystemManager) ImageSystem() *ImageSystem {
	return sm.imageSystem
}

// Shutdown tears the systems down in the reverse order of creation.
func (sm *SystemManager) Shutdown() error {
	if err := sm.imageSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.resourceTable.Shutdown(); err != nil {
		return err
	}
	return nil
}
