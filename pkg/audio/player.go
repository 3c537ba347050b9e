package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// The audio context can only be created once per process.
var (
	globalCtx     *oto.Context
	globalCtxOnce sync.Once
	ctxReady      bool
)

// Manager is the single shared playback channel. Starting playback for one
// alarm supersedes whatever is currently playing; at most one session is
// ever active.
type Manager struct {
	mu      sync.Mutex
	current *session
	log     *zap.Logger
}

// NewManager creates the playback manager.
func NewManager(log *zap.Logger) *Manager {
	return &Manager{log: log}
}

// Play loads the WAV file at path and starts playing it, stopping any sound
// already playing first. With loop set, playback repeats until Stop.
func (m *Manager) Play(path string, loop bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}
	format, samples, err := parseWAV(data)
	if err != nil {
		return fmt.Errorf("parse audio file %s: %w", path, err)
	}

	initContext(format, m.log)
	if !ctxReady || globalCtx == nil {
		return fmt.Errorf("audio context not ready")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.stop()
	}
	m.current = newSession(samples, loop, m.log)
	return nil
}

// Stop ends the active playback session, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.stop()
		m.current = nil
	}
}

func initContext(format *wavFormat, log *zap.Logger) {
	globalCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			log.Error("audio context init failed", zap.Error(err))
			return
		}
		// Wait for the hardware audio devices to be ready.
		<-readyChan
		globalCtx = ctx
		ctxReady = true
		log.Info("audio context initialized")
	})
}

// wavePlayer is the slice of *oto.Player the session goroutine drives.
type wavePlayer interface {
	Play()
	IsPlaying() bool
	Pause()
	Close() error
}

// session owns one playback goroutine. The player is only ever touched from
// that goroutine; stop just closes the channel it selects on.
type session struct {
	stopChan  chan struct{}
	stopOnce  sync.Once
	newPlayer func() wavePlayer
	log       *zap.Logger
}

func newSession(samples []byte, loop bool, log *zap.Logger) *session {
	return startSession(func() wavePlayer {
		return globalCtx.NewPlayer(bytes.NewReader(samples))
	}, loop, log)
}

func startSession(newPlayer func() wavePlayer, loop bool, log *zap.Logger) *session {
	s := &session{
		stopChan:  make(chan struct{}),
		newPlayer: newPlayer,
		log:       log,
	}
	go s.run(loop)
	return s
}

func (s *session) run(loop bool) {
	for {
		// A fresh player per pass; players cannot be rewound.
		player := s.newPlayer()
		player.Play()

		for player.IsPlaying() {
			select {
			case <-s.stopChan:
				player.Pause()
				player.Close()
				return
			case <-time.After(10 * time.Millisecond):
			}
		}

		if err := player.Close(); err != nil {
			s.log.Warn("audio player close failed", zap.Error(err))
		}

		if !loop {
			return
		}
		select {
		case <-s.stopChan:
			return
		default:
		}
	}
}

func (s *session) stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// wavFormat holds the fields of a WAV fmt chunk the player needs.
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// parseWAV splits a RIFF/WAVE byte stream into its format and sample data.
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	riff := make([]byte, 4)
	if _, err := io.ReadFull(reader, riff); err != nil {
		return nil, nil, err
	}
	if string(riff) != "RIFF" {
		return nil, nil, fmt.Errorf("not a RIFF file")
	}

	// Skip file size.
	reader.Seek(4, io.SeekCurrent)

	wave := make([]byte, 4)
	if _, err := io.ReadFull(reader, wave); err != nil {
		return nil, nil, err
	}
	if string(wave) != "WAVE" {
		return nil, nil, fmt.Errorf("not a WAVE file")
	}

	format := &wavFormat{}
	var dataStart int64
	var dataSize uint32

	for {
		chunkID := make([]byte, 4)
		if _, err := io.ReadFull(reader, chunkID); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, nil, err
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, err
		}

		switch string(chunkID) {
		case "fmt ":
			var audioFormat uint16
			binary.Read(reader, binary.LittleEndian, &audioFormat)

			var numChannels uint16
			binary.Read(reader, binary.LittleEndian, &numChannels)
			format.Channels = int(numChannels)

			var sampleRate uint32
			binary.Read(reader, binary.LittleEndian, &sampleRate)
			format.SampleRate = int(sampleRate)

			// Skip byte rate and block align.
			reader.Seek(6, io.SeekCurrent)

			var bitsPerSample uint16
			binary.Read(reader, binary.LittleEndian, &bitsPerSample)
			format.BitDepth = int(bitsPerSample)

			if remaining := int64(chunkSize) - 16; remaining > 0 {
				reader.Seek(remaining, io.SeekCurrent)
			}
		case "data":
			dataStart, _ = reader.Seek(0, io.SeekCurrent)
			dataSize = chunkSize
		default:
			reader.Seek(int64(chunkSize), io.SeekCurrent)
		}
		if dataSize > 0 {
			break
		}
	}

	if dataSize == 0 {
		return nil, nil, fmt.Errorf("no data chunk found")
	}

	samples := make([]byte, dataSize)
	reader.Seek(dataStart, io.SeekStart)
	if _, err := io.ReadFull(reader, samples); err != nil {
		return nil, nil, fmt.Errorf("read sample data: %w", err)
	}

	return format, samples, nil
}
