package telegram

import (
	"strconv"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

var ErrUnknownChat = errors.New("unknown chat")

// ChatKey names a peer in the string form handlers see.
func ChatKey(peer tg.PeerClass) string {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return "u" + strconv.FormatInt(p.UserID, 10)
	case *tg.PeerChat:
		return "g" + strconv.FormatInt(p.ChatID, 10)
	case *tg.PeerChannel:
		return "c" + strconv.FormatInt(p.ChannelID, 10)
	default:
		return ""
	}
}

func resolvePeer(peer tg.PeerClass, entities tg.Entities) (tg.InputPeerClass, error) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		user, ok := entities.Users[p.UserID]
		if !ok {
			return nil, errors.Errorf("user %d not found in entities", p.UserID)
		}
		return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}, nil
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}, nil
	case *tg.PeerChannel:
		channel, ok := entities.Channels[p.ChannelID]
		if !ok {
			return nil, errors.Errorf("channel %d not found in entities", p.ChannelID)
		}
		return &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}, nil
	default:
		return nil, errors.Errorf("unknown peer type: %T", peer)
	}
}

// peerCache remembers input peers seen in updates so replies can be
// addressed by chat key alone.
type peerCache struct {
	mu    sync.RWMutex
	peers map[string]tg.InputPeerClass
}

func newPeerCache() *peerCache {
	return &peerCache{peers: make(map[string]tg.InputPeerClass)}
}

func (c *peerCache) Put(key string, peer tg.InputPeerClass) {
	if key == "" || peer == nil {
		return
	}
	c.mu.Lock()
	c.peers[key] = peer
	c.mu.Unlock()
}

func (c *peerCache) Get(key string) (tg.InputPeerClass, error) {
	c.mu.RLock()
	peer, ok := c.peers[key]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownChat, key)
	}
	return peer, nil
}
