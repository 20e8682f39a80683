/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */
package appcli

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/bleser/serxact/sergap"
)

// Matches events by ID and connection handle.  -1 in either field is a
// wildcard.
type ListenerKey struct {
	EvtId      int
	ConnHandle int
}

func EvtKey(id sergap.EvtId, connHandle int) ListenerKey {
	return ListenerKey{
		EvtId:      int(id),
		ConnHandle: connHandle,
	}
}

// Listener that matches every event on a connection.
func ConnKey(connHandle uint16) ListenerKey {
	return ListenerKey{
		EvtId:      -1,
		ConnHandle: int(connHandle),
	}
}

func AnyKey() ListenerKey {
	return ListenerKey{
		EvtId:      -1,
		ConnHandle: -1,
	}
}

type EvtMsg struct {
	ConnHandle uint16
	Evt        sergap.Evt
}

type Listener struct {
	EvtChan chan EvtMsg
	ErrChan chan error
}

func NewListener() *Listener {
	return &Listener{
		EvtChan: make(chan EvtMsg, 16),
		ErrChan: make(chan error, 1),
	}
}

type ListenerMap struct {
	k2l map[ListenerKey]*Listener
	l2k map[*Listener]ListenerKey
	mtx sync.Mutex
}

func NewListenerMap() *ListenerMap {
	return &ListenerMap{
		k2l: map[ListenerKey]*Listener{},
		l2k: map[*Listener]ListenerKey{},
	}
}

// The most specific key wins.
func (lm *ListenerMap) findListener(id sergap.EvtId, connHandle uint16) (
	ListenerKey, *Listener) {

	keys := []ListenerKey{
		EvtKey(id, int(connHandle)),
		EvtKey(id, -1),
		ConnKey(connHandle),
		AnyKey(),
	}

	for _, key := range keys {
		if listener := lm.k2l[key]; listener != nil {
			return key, listener
		}
	}

	return ListenerKey{}, nil
}

func (lm *ListenerMap) AddListener(key ListenerKey, listener *Listener) error {
	lm.mtx.Lock()
	defer lm.mtx.Unlock()

	if _, ok := lm.k2l[key]; ok {
		return fmt.Errorf("Duplicate event listener: evt=%d conn_handle=%d",
			key.EvtId, key.ConnHandle)
	}

	if _, ok := lm.l2k[listener]; ok {
		return fmt.Errorf("Listener already registered: evt=%d conn_handle=%d",
			key.EvtId, key.ConnHandle)
	}

	lm.k2l[key] = listener
	lm.l2k[listener] = key

	return nil
}

func (lm *ListenerMap) RemoveListener(listener *Listener) *ListenerKey {
	lm.mtx.Lock()
	defer lm.mtx.Unlock()

	key, ok := lm.l2k[listener]
	if !ok {
		return nil
	}

	delete(lm.k2l, key)
	delete(lm.l2k, listener)

	return &key
}

// Hands an event to its listener.  A listener that has stopped draining its
// channel loses the event; the receive path never blocks on it.
func (lm *ListenerMap) Dispatch(connHandle uint16, ev sergap.Evt) bool {
	lm.mtx.Lock()
	_, listener := lm.findListener(ev.EvtId(), connHandle)
	lm.mtx.Unlock()

	if listener == nil {
		log.Debugf("No listener for evt=%s conn_handle=%d",
			ev.EvtId(), connHandle)
		return false
	}

	select {
	case listener.EvtChan <- EvtMsg{connHandle, ev}:
		return true
	default:
		log.Warnf("Event listener overflow; dropping evt=%s conn_handle=%d",
			ev.EvtId(), connHandle)
		return false
	}
}

// Fails and removes every listener.
func (lm *ListenerMap) ErrorAll(err error) {
	lm.mtx.Lock()

	listeners := make([]*Listener, 0, len(lm.l2k))
	for listener, _ := range lm.l2k {
		listeners = append(listeners, listener)
	}
	lm.k2l = map[ListenerKey]*Listener{}
	lm.l2k = map[*Listener]ListenerKey{}

	lm.mtx.Unlock()

	for _, listener := range listeners {
		select {
		case listener.ErrChan <- err:
		default:
		}
	}
}
