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

package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/newt/util"
)

// A connection profile names a transport and the connection string its
// parser accepts.  Profiles are kept as a JSON list in the user's home
// directory.

type ConnType int

const (
	CONN_TYPE_NONE ConnType = iota
	CONN_TYPE_SERIAL
	CONN_TYPE_SIM
)

var connTypeNames = []string{
	CONN_TYPE_NONE:   "???",
	CONN_TYPE_SERIAL: "serial",
	CONN_TYPE_SIM:    "sim",
}

func (ct ConnType) String() string {
	if ct < 0 || int(ct) >= len(connTypeNames) {
		return connTypeNames[CONN_TYPE_NONE]
	}
	return connTypeNames[ct]
}

func ConnTypeFromString(s string) (ConnType, error) {
	for i := int(CONN_TYPE_NONE) + 1; i < len(connTypeNames); i++ {
		if connTypeNames[i] == s {
			return ConnType(i), nil
		}
	}

	return CONN_TYPE_NONE, util.FmtNewtError("Invalid connection type: %s", s)
}

func (ct ConnType) MarshalText() ([]byte, error) {
	if ct == CONN_TYPE_NONE {
		return nil, util.NewNewtError("connection profile has no type")
	}
	return []byte(ct.String()), nil
}

func (ct *ConnType) UnmarshalText(text []byte) error {
	var err error
	*ct, err = ConnTypeFromString(string(text))
	return err
}

type ConnProfile struct {
	Name       string   `json:"name"`
	Type       ConnType `json:"type"`
	ConnString string   `json:"connstring"`
}

func NewConnProfile() *ConnProfile {
	return &ConnProfile{}
}

func (p *ConnProfile) String() string {
	return fmt.Sprintf("name=%s type=%s connstring=%s",
		p.Name, p.Type, p.ConnString)
}

// Validate runs the connection string through the parser for the profile's
// transport.
func (p *ConnProfile) Validate() error {
	if p.Name == "" {
		return util.NewNewtError("Connection profile needs a name")
	}

	var err error
	switch p.Type {
	case CONN_TYPE_SERIAL:
		_, err = ParseSerialConnString(p.ConnString)
	case CONN_TYPE_SIM:
		_, err = ParseSimConnString(p.ConnString)
	default:
		err = util.NewNewtError("Must specify a connection type")
	}

	return err
}

type ConnProfileMgr struct {
	filename string
	profiles map[string]*ConnProfile
}

func NewConnProfileMgr() (*ConnProfileMgr, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return nil, util.ChildNewtError(err)
	}

	return NewConnProfileMgrFile(
		filepath.Join(dir, bsutil.ToolInfo.CfgFilename))
}

// NewConnProfileMgrFile loads the profiles stored in filename.  A missing
// file is an empty profile list.
func NewConnProfileMgrFile(filename string) (*ConnProfileMgr, error) {
	cpm := &ConnProfileMgr{
		filename: filename,
		profiles: map[string]*ConnProfile{},
	}

	if err := cpm.load(); err != nil {
		return nil, err
	}

	return cpm, nil
}

func (cpm *ConnProfileMgr) load() error {
	blob, err := ioutil.ReadFile(cpm.filename)
	if os.IsNotExist(err) {
		log.Debugf("No connection profiles at %s", cpm.filename)
		return nil
	}
	if err != nil {
		return util.ChildNewtError(err)
	}

	var list []*ConnProfile
	if err := json.Unmarshal(blob, &list); err != nil {
		return util.FmtNewtError("Bad connection profile file %s: %s",
			cpm.filename, err.Error())
	}

	for _, p := range list {
		if err := p.Validate(); err != nil {
			return util.FmtNewtError("Bad connection profile \"%s\" in %s: %s",
				p.Name, cpm.filename, err.Error())
		}
		cpm.profiles[p.Name] = p
	}

	log.Debugf("Loaded %d connection profile(s) from %s", len(list),
		cpm.filename)
	return nil
}

// Writes a sibling file first so a failed write leaves the old list intact.
func (cpm *ConnProfileMgr) save() error {
	list, _ := cpm.GetConnProfileList()

	blob, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return util.ChildNewtError(err)
	}

	tmp := cpm.filename + ".tmp"
	if err := ioutil.WriteFile(tmp, blob, 0644); err != nil {
		return util.ChildNewtError(err)
	}
	if err := os.Rename(tmp, cpm.filename); err != nil {
		os.Remove(tmp)
		return util.ChildNewtError(err)
	}

	return nil
}

// GetConnProfileList returns every profile, ordered by name.
func (cpm *ConnProfileMgr) GetConnProfileList() ([]*ConnProfile, error) {
	list := make([]*ConnProfile, 0, len(cpm.profiles))
	for _, p := range cpm.profiles {
		list = append(list, p)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return list, nil
}

func (cpm *ConnProfileMgr) GetConnProfile(name string) (*ConnProfile, error) {
	p := cpm.profiles[name]
	if p == nil {
		return nil, util.FmtNewtError(
			"connection profile \"%s\" doesn't exist", name)
	}

	return p, nil
}

// AddConnProfile stores cp, replacing any profile of the same name.
func (cpm *ConnProfileMgr) AddConnProfile(cp *ConnProfile) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	cpm.profiles[cp.Name] = cp
	return cpm.save()
}

func (cpm *ConnProfileMgr) DeleteConnProfile(name string) error {
	if _, err := cpm.GetConnProfile(name); err != nil {
		return err
	}

	delete(cpm.profiles, name)
	return cpm.save()
}

var globalConnProfileMgr *ConnProfileMgr

func GlobalConnProfileMgr() *ConnProfileMgr {
	if globalConnProfileMgr == nil {
		panic("connection profile manager not initialized")
	}
	return globalConnProfileMgr
}

func InitGlobalConnProfileMgr() error {
	if globalConnProfileMgr != nil {
		return util.NewNewtError("connection profile manager initialized twice")
	}

	cpm, err := NewConnProfileMgr()
	if err != nil {
		return err
	}

	globalConnProfileMgr = cpm
	return nil
}
