package mdf

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/mdfreader/mdf3/storage"
)

// File is an open MDF 3.x measurement file: its block graph has been walked
// and every channel's samples decoded to their raw dtype, but no conversion
// has run yet. Conversions apply lazily, on first Get of a channel or in
// bulk via ConvertAll.
type File struct {
	closer  func() error
	header  HeaderInfo
	order   []string
	entries map[string]*ChannelEntry
	masters map[string][]string
	opts    Options
}

// Open reads path, walks its block graph and decodes every channel's raw
// samples. The file is fully read into entries and its handle is released
// before Open returns; there is no further I/O on File once Open succeeds,
// only in-memory conversion.
func Open(path string, opts Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "mdf: opening file")
	}
	defer f.Close()

	return openReader(f, fileStat{f}, opts)
}

// openReader builds a File from an io.ReaderAt plus its byte size, shared by
// Open and tests that exercise an in-memory buffer.
func openReader(ra storageReaderAt, sized storageSized, opts Options) (*File, error) {
	size, err := sized.Size()
	if err != nil {
		return nil, errors.Wrap(err, "mdf: stat")
	}
	r := storage.NewReader(ra, size)

	header, groups, err := buildGraph(r, opts)
	if err != nil {
		return nil, err
	}

	entries, order, masters, err := decodeGroups(r, groups, opts)
	if err != nil {
		return nil, err
	}

	return &File{header: header, order: order, entries: entries, masters: masters, opts: opts}, nil
}

type storageReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

type storageSized interface {
	Size() (int64, error)
}

// fileStat adapts *os.File to storageSized.
type fileStat struct{ f *os.File }

func (fs fileStat) Size() (int64, error) {
	info, err := fs.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// decodeGroups resolves record layouts and decodes every data group's
// channel groups, optionally in parallel across data groups (Options.Concurrency),
// and flattens the result into File's public, name-keyed entries plus the
// master-name to channel-list mapping.
func decodeGroups(r *storage.Reader, groups []*dataGroupInfo, opts Options) (map[string]*ChannelEntry, []string, map[string][]string, error) {
	idBlockByteOrder := uint16(0) // Open already rejected any non-zero flag.

	type groupResult struct {
		dg      *dataGroupInfo
		samples map[int][]Samples
		err     error
	}
	results := make([]groupResult, len(groups))

	sem := make(chan struct{}, opts.concurrency())
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var firstErr error
	var errMu sync.Mutex

	for i, dg := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, dg *dataGroupInfo) {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			samples, err := decodeDataGroup(r, idBlockByteOrder, dg)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				errMu.Unlock()
				return
			}
			results[i] = groupResult{dg: dg, samples: samples}
		}(i, dg)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, nil, firstErr
	}

	entries := map[string]*ChannelEntry{}
	masters := map[string][]string{}
	var order []string

	for i, dg := range groups {
		res := results[i]

		// The master (time) channel's key, shared by every channel group in
		// this data group, not just the one that declares it: "master<dg>".
		master := "master" + itoa(dg.index)

		for _, cg := range dg.channelGroups {
			cols := res.samples[cg.index]

			for ci, ch := range cg.channels {
				key := ch.name
				if ch.channelType == channelTypeMaster {
					key = master
				}
				if _, dup := entries[key]; dup {
					// Graph construction already disambiguates by DG/CG/CN
					// position; a collision here would mean two channels
					// resolved to the same name across different groups
					// (or two master channels in the same data group,
					// which collapse onto the same master<dg> key by
					// design), which disambiguate's global set is built
					// to prevent for anything else.
					continue
				}

				entries[key] = &ChannelEntry{
					Samples:      cols[ci],
					Master:       master,
					Unit:         ch.unit,
					Description:  ch.description,
					DeviceName:   ch.deviceName,
					Conversion:   ch.conversion,
					dataGroup:    dg.index,
					channelGroup: cg.index,
					recordCount:  cg.recordCount,
				}
				order = append(order, key)
				masters[master] = append(masters[master], key)
			}
		}
	}

	return entries, order, masters, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		digits[i] = '-'
	}
	return string(digits[i:])
}

// Close releases the underlying file handle if f still holds one. Open
// releases its handle before returning, and a File built over a
// caller-supplied reader holds none, so for both Close is a no-op.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer()
}

// Header returns the decoded HD block.
func (f *File) Header() HeaderInfo {
	return f.header
}

// ChannelNames returns every channel name in the order its data group,
// channel group and first-bit position place it.
func (f *File) ChannelNames() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Get returns the named channel's entry, applying its pending conversion
// lazily on first access. It never errors on a conversion failure; a
// malformed conversion is reported through Options.Diagnostics and the
// samples are returned raw instead.
func (f *File) Get(name string) (ChannelEntry, bool) {
	e, ok := f.entries[name]
	if !ok {
		return ChannelEntry{}, false
	}
	if e.Conversion != nil {
		e.Samples = convert(e.Samples, e.Conversion, f.opts.sink())
		e.Conversion = nil
	}
	return *e, true
}

// ChannelsForMaster returns the channels keyed to the named master
// (including the master channel itself), in the order they were walked:
// ascending first-bit within a channel group, then channel-group and
// data-group walk order. The returned slice is a copy.
func (f *File) ChannelsForMaster(master string) []string {
	out := make([]string, len(f.masters[master]))
	copy(out, f.masters[master])
	return out
}

// Convert applies name's pending conversion in place, idempotently: a second
// call is a no-op because Conversion is nil once applied.
func (f *File) Convert(name string) error {
	e, ok := f.entries[name]
	if !ok {
		return errors.Errorf("mdf: unknown channel %q", name)
	}
	if e.Conversion == nil {
		return nil
	}
	e.Samples = convert(e.Samples, e.Conversion, f.opts.sink())
	e.Conversion = nil
	return nil
}

// ConvertAll applies every channel's pending conversion, bounded by
// Options.Concurrency and cancellable via ctx between channels.
func (f *File) ConvertAll(ctx context.Context) error {
	sem := make(chan struct{}, f.opts.concurrency())
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	for _, name := range f.order {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := f.Convert(name); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		}(name)
	}
	wg.Wait()
	return firstErr
}

// Keep discards every channel not named in names, freeing their samples.
// Each kept channel's master is retained automatically even when not named
// explicitly.
func (f *File) Keep(names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for _, n := range names {
		if e, ok := f.entries[n]; ok {
			want[e.Master] = true
		}
	}

	kept := f.order[:0]
	for _, n := range f.order {
		if want[n] {
			kept = append(kept, n)
			continue
		}
		delete(f.entries, n)
	}
	f.order = kept

	for m, list := range f.masters {
		keptList := list[:0]
		for _, n := range list {
			if want[n] {
				keptList = append(keptList, n)
			}
		}
		f.masters[m] = keptList
	}
}
