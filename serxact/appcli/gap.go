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
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
)

func (c *Client) AddressSet(cycleMode uint8, addr *BleDev) error {
	return c.Do(&sergap.AddrSetReq{
		CycleMode: cycleMode,
		Addr:      addr,
	}, nil)
}

func (c *Client) AddressGet() (BleDev, error) {
	rsp := &sergap.AddrGetRsp{}
	if err := c.Do(&sergap.AddrGetReq{WantAddr: true}, rsp); err != nil {
		return BleDev{}, err
	}
	if rsp.Addr == nil {
		return BleDev{}, missingResult(sergap.GAP_OP_ADDRESS_GET)
	}

	return *rsp.Addr, nil
}

func (c *Client) AdvDataSet(data []byte, srData []byte) error {
	return c.Do(&sergap.AdvDataSetReq{
		Data:   data,
		SrData: srData,
	}, nil)
}

func (c *Client) AdvStart(params *BleAdvParams) error {
	return c.Do(&sergap.AdvStartReq{Params: params}, nil)
}

func (c *Client) AdvStop() error {
	return c.Do(&sergap.AdvStopReq{}, nil)
}

func (c *Client) ConnParamUpdate(connHandle uint16,
	params *BleConnParams) error {

	return c.Do(&sergap.ConnParamUpdateReq{
		ConnHandle: connHandle,
		Params:     params,
	}, nil)
}

func (c *Client) Disconnect(connHandle uint16, hciStatus uint8) error {
	return c.Do(&sergap.DisconnectReq{
		ConnHandle: connHandle,
		HciStatus:  hciStatus,
	}, nil)
}

func (c *Client) TxPowerSet(txPower int8) error {
	return c.Do(&sergap.TxPowerSetReq{TxPower: txPower}, nil)
}

func (c *Client) AppearanceSet(appearance uint16) error {
	return c.Do(&sergap.AppearanceSetReq{Appearance: appearance}, nil)
}

func (c *Client) AppearanceGet() (uint16, error) {
	rsp := &sergap.AppearanceGetRsp{}
	err := c.Do(&sergap.AppearanceGetReq{WantAppearance: true}, rsp)
	if err != nil {
		return 0, err
	}
	if rsp.Appearance == nil {
		return 0, missingResult(sergap.GAP_OP_APPEARANCE_GET)
	}

	return *rsp.Appearance, nil
}

func (c *Client) PpcpSet(params *BleConnParams) error {
	return c.Do(&sergap.PpcpSetReq{Params: params}, nil)
}

func (c *Client) PpcpGet() (BleConnParams, error) {
	rsp := &sergap.PpcpGetRsp{}
	if err := c.Do(&sergap.PpcpGetReq{WantParams: true}, rsp); err != nil {
		return BleConnParams{}, err
	}
	if rsp.Params == nil {
		return BleConnParams{}, missingResult(sergap.GAP_OP_PPCP_GET)
	}

	return *rsp.Params, nil
}

func (c *Client) DevNameSet(writePerm *BleConnSecMode, name []byte) error {
	return c.Do(&sergap.DevNameSetReq{
		WritePerm: writePerm,
		Name:      name,
	}, nil)
}

// Reads the device name into a buffer of at most maxLen bytes.
func (c *Client) DevNameGet(maxLen uint16) ([]byte, error) {
	rsp := &sergap.DevNameGetRsp{}
	req := &sergap.DevNameGetReq{
		Len:      &maxLen,
		WantName: true,
	}
	if err := c.Do(req, rsp); err != nil {
		return nil, err
	}
	if rsp.Name == nil {
		return []byte{}, nil
	}

	return rsp.Name, nil
}

// Reads the length of the device name without transferring it.
func (c *Client) DevNameLen() (uint16, error) {
	var l uint16

	rsp := &sergap.DevNameGetRsp{}
	if err := c.Do(&sergap.DevNameGetReq{Len: &l}, rsp); err != nil {
		return 0, err
	}
	if rsp.Len == nil {
		return 0, missingResult(sergap.GAP_OP_DEVICE_NAME_GET)
	}

	return *rsp.Len, nil
}

func (c *Client) Authenticate(connHandle uint16, params *BleSecParams) error {
	return c.Do(&sergap.AuthenticateReq{
		ConnHandle: connHandle,
		Params:     params,
	}, nil)
}

// Replies to a security parameters request.  If keyset is non-nil, the keys
// distributed during the procedure are copied into it when the procedure's
// authentication status arrives, before the event reaches listeners.
func (c *Client) SecParamsReply(connHandle uint16, secStatus uint8,
	params *BleSecParams, keyset *BleSecKeyset) error {

	req := &sergap.SecParamsReplyReq{
		ConnHandle: connHandle,
		SecStatus:  secStatus,
		Params:     params,
		Keyset:     keyset,
	}

	// Registered before the command goes out; the status event can
	// overtake the response.
	c.registerKeyset(connHandle, keyset)

	if err := c.Do(req, &sergap.SecParamsReplyRsp{}); err != nil {
		c.registerKeyset(connHandle, nil)
		return err
	}

	return nil
}

func (c *Client) AuthKeyReply(connHandle uint16, keyType BleAuthKeyType,
	key []byte) error {

	return c.Do(&sergap.AuthKeyReplyReq{
		ConnHandle: connHandle,
		KeyType:    keyType,
		Key:        key,
	}, nil)
}

func (c *Client) LescDhkeyReply(connHandle uint16, dhkey *BleLescDhkey) error {
	return c.Do(&sergap.LescDhkeyReplyReq{
		ConnHandle: connHandle,
		Dhkey:      dhkey,
	}, nil)
}

func (c *Client) KeypressNotify(connHandle uint16, kpNot uint8) error {
	return c.Do(&sergap.KeypressNotifyReq{
		ConnHandle: connHandle,
		KpNot:      kpNot,
	}, nil)
}

func (c *Client) Encrypt(connHandle uint16, masterId *BleMasterId,
	encInfo *BleEncInfo) error {

	return c.Do(&sergap.EncryptReq{
		ConnHandle: connHandle,
		MasterId:   masterId,
		EncInfo:    encInfo,
	}, nil)
}

func (c *Client) SecInfoReply(connHandle uint16, encInfo *BleEncInfo,
	idInfo *BleIrk, signInfo *BleSignInfo) error {

	return c.Do(&sergap.SecInfoReplyReq{
		ConnHandle: connHandle,
		EncInfo:    encInfo,
		IdInfo:     idInfo,
		SignInfo:   signInfo,
	}, nil)
}

func (c *Client) ConnSecGet(connHandle uint16) (BleConnSec, error) {
	rsp := &sergap.ConnSecGetRsp{}
	req := &sergap.ConnSecGetReq{
		ConnHandle:  connHandle,
		WantConnSec: true,
	}
	if err := c.Do(req, rsp); err != nil {
		return BleConnSec{}, err
	}
	if rsp.ConnSec == nil {
		return BleConnSec{}, missingResult(sergap.GAP_OP_CONN_SEC_GET)
	}

	return *rsp.ConnSec, nil
}

func (c *Client) RssiStart(connHandle uint16, thresholdDbm uint8,
	skipCount uint8) error {

	return c.Do(&sergap.RssiStartReq{
		ConnHandle:   connHandle,
		ThresholdDbm: thresholdDbm,
		SkipCount:    skipCount,
	}, nil)
}

func (c *Client) RssiStop(connHandle uint16) error {
	return c.Do(&sergap.RssiStopReq{ConnHandle: connHandle}, nil)
}

func (c *Client) RssiGet(connHandle uint16) (int8, error) {
	rsp := &sergap.RssiGetRsp{}
	req := &sergap.RssiGetReq{
		ConnHandle: connHandle,
		WantRssi:   true,
	}
	if err := c.Do(req, rsp); err != nil {
		return 0, err
	}
	if rsp.Rssi == nil {
		return 0, missingResult(sergap.GAP_OP_RSSI_GET)
	}

	return *rsp.Rssi, nil
}

func (c *Client) ScanStart(params *BleScanParams) error {
	return c.Do(&sergap.ScanStartReq{Params: params}, nil)
}

func (c *Client) ScanStop() error {
	return c.Do(&sergap.ScanStopReq{}, nil)
}

func (c *Client) Connect(peerAddr *BleDev, scanParams *BleScanParams,
	connParams *BleConnParams) error {

	return c.Do(&sergap.ConnectReq{
		PeerAddr:   peerAddr,
		ScanParams: scanParams,
		ConnParams: connParams,
	}, nil)
}

func (c *Client) ConnectCancel() error {
	return c.Do(&sergap.ConnectCancelReq{}, nil)
}
