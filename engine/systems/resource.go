package systems

import (
	"fmt"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

/** @brief The configuration for the resource table */
type ResourceTableConfig struct {
	/** @brief The maximum number of images that can be registered at once. 0 means unbounded. */
	MaxImageCount uint32
}

// ResourceTable holds the images registered with one engine. Handles are
// looked up through an index map; the slice keeps registration order until
// a removal swaps the last entry into the freed slot.
type ResourceTable struct {
	Config *ResourceTableConfig
	// Array of registered images.
	RegisteredImages []*metadata.Image
	// Hashtable for handle lookups.
	registeredImageTable map[metadata.ImageHandle]int
}

func NewResourceTable(config *ResourceTableConfig) *ResourceTable {
	return &ResourceTable{
		Config:               config,
		RegisteredImages:     make([]*metadata.Image, 0),
		registeredImageTable: make(map[metadata.ImageHandle]int),
	}
}

func (rt *ResourceTable) IsValidImage(handle metadata.ImageHandle) bool {
	_, ok := rt.registeredImageTable[handle]
	return ok
}

// FindIndex returns the slot of handle, or -1 when it is not registered.
func (rt *ResourceTable) FindIndex(handle metadata.ImageHandle) int {
	if index, ok := rt.registeredImageTable[handle]; ok {
		return index
	}
	return -1
}

func (rt *ResourceTable) Get(handle metadata.ImageHandle) *metadata.Image {
	if index := rt.FindIndex(handle); index >= 0 {
		return rt.RegisteredImages[index]
	}
	return nil
}

func (rt *ResourceTable) Register(image *metadata.Image) error {
	if !image.Handle.IsValid() {
		return fmt.Errorf("cannot register an image without a handle: %w", core.ErrIllegalArgument)
	}
	if rt.IsValidImage(image.Handle) {
		return fmt.Errorf("image %s is already registered: %w", image.Handle, core.ErrIllegalArgument)
	}
	if rt.Config.MaxImageCount != 0 && uint32(len(rt.RegisteredImages)) >= rt.Config.MaxImageCount {
		return fmt.Errorf("resource table is full (%d images): %w", rt.Config.MaxImageCount, core.ErrOutOfMemory)
	}
	rt.registeredImageTable[image.Handle] = len(rt.RegisteredImages)
	rt.RegisteredImages = append(rt.RegisteredImages, image)
	return nil
}

func (rt *ResourceTable) Deregister(index int) (*metadata.Image, error) {
	if index < 0 || index >= len(rt.RegisteredImages) {
		return nil, fmt.Errorf("resource table index %d out of range: %w", index, core.ErrBadHandle)
	}
	image := rt.RegisteredImages[index]
	last := len(rt.RegisteredImages) - 1
	if index != last {
		moved := rt.RegisteredImages[last]
		rt.RegisteredImages[index] = moved
		rt.registeredImageTable[moved.Handle] = index
	}
	rt.RegisteredImages[last] = nil
	rt.RegisteredImages = rt.RegisteredImages[:last]
	delete(rt.registeredImageTable, image.Handle)
	return image, nil
}

func (rt *ResourceTable) Count() int {
	return len(rt.RegisteredImages)
}

// Images returns a snapshot of the registered images.
func (rt *ResourceTable) Images() []*metadata.Image {
	return append([]*metadata.Image(nil), rt.RegisteredImages...)
}

func (rt *ResourceTable) Shutdown() error {
	if n := len(rt.RegisteredImages); n != 0 {
		return fmt.Errorf("resource table shut down with %d registered images", n)
	}
	rt.registeredImageTable = make(map[metadata.ImageHandle]int)
	return nil
}
