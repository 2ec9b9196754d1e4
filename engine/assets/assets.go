package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	// A decodable image file.
	AssetTypeImage
	// A raw pixel dump written by SaveRaw.
	AssetTypeRaw
	// A job description for the testbed runner.
	AssetTypeJob
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeImage:
		return "image"
	case AssetTypeRaw:
		return "raw"
	case AssetTypeJob:
		return "job"
	}
	return "none"
}

type AssetInfo struct {
	Path     string
	Type     AssetType
	Modified time.Time
}

// AssetManager indexes the pixel assets below a set of directories, keeps
// the index current through fsnotify and loads assets with the loader
// registered for their type.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	events   chan fsnotify.Event
	errors   chan error
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[AssetType]Loader),
		fsnotify: fsWatch,
		events:   make(chan fsnotify.Event, 64),
		errors:   make(chan error, 8),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	am.registerLoader(AssetTypeImage, &ImageLoader{})
	am.registerLoader(AssetTypeRaw, &RawLoader{})

	go am.start()
	return am, nil
}

// Events delivers the file system events seen for watched assets. Events
// are dropped when nobody drains the channel.
func (am *AssetManager) Events() <-chan fsnotify.Event {
	return am.events
}

func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

// AddRecursive starts watching the named directory and all sub-directories.
// A plain file is indexed and its directory watched.
func (am *AssetManager) AddRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	fi, err := os.Stat(name)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		am.handleFileEvent(name)
		return am.fsnotify.Add(filepath.Dir(name))
	}
	return am.watchRecursive(name, false)
}

// RemoveRecursive stops watching the named directory and all sub-directories.
func (am *AssetManager) RemoveRecursive(name string) error {
	return am.watchRecursive(name, true)
}

func (am *AssetManager) Close() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	<-am.stopped
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Lookup returns the index entry of path.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	asset, ok := am.assets[filepath.Clean(path)]
	return asset, ok
}

// Assets returns the indexed assets of the given type, in no particular order.
func (am *AssetManager) Assets(assetType AssetType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0)
	for _, a := range am.assets {
		if a.Type == assetType {
			out = append(out, a)
		}
	}
	return out
}

// LoadAsset decodes the pixels of path with the loader of its type. The
// file does not need to be indexed.
func (am *AssetManager) LoadAsset(path string) (*metadata.PixelBuffer, error) {
	assetType := DetermineAssetType(path)
	loader, ok := am.loaders[assetType]
	if !ok {
		return nil, fmt.Errorf("no loader registered for %s assets (%s)", assetType, path)
	}
	return loader.Load(path)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name, false)
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			// A removed directory cannot be stat'ed any more; unwatching a
			// path that was never watched is harmless.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				am.fsnotify.Remove(e.Name)
			}
			if DetermineAssetType(e.Name) == AssetTypeNone {
				continue
			}
			select {
			case am.events <- e:
			default:
				core.LogDebug("asset event dropped: %s", e)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())
			select {
			case am.errors <- err:
			default:
			}

		case <-am.done:
			am.fsnotify.Close()
			close(am.events)
			close(am.errors)
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way. Files created before the watch on
// their directory lands are picked up by the walk.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				if err = am.fsnotify.Remove(walkPath); err != nil {
					return err
				}
				am.removeAsset(walkPath)
			} else {
				if err = am.fsnotify.Add(walkPath); err != nil {
					return err
				}
			}
		} else if !unWatch {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := DetermineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}
	modified := time.Now()
	if fi, err := os.Stat(path); err == nil {
		modified = fi.ModTime()
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	path = filepath.Clean(path)
	am.assets[path] = AssetInfo{
		Path:     path,
		Type:     assetType,
		Modified: modified,
	}
}

// Remove the asset, or every asset below a directory, from the index
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	path = filepath.Clean(path)
	delete(am.assets, path)
	prefix := path + string(filepath.Separator)
	for p := range am.assets {
		if strings.HasPrefix(p, prefix) {
			delete(am.assets, p)
		}
	}
}

func DetermineAssetType(path string) AssetType {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, RawExtension) {
		return AssetTypeRaw
	}
	switch filepath.Ext(lower) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	case ".toml":
		return AssetTypeJob
	default:
		return AssetTypeNone
	}
}
