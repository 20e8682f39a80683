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

package connsvr

import (
	log "github.com/sirupsen/logrus"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

// A handler invokes the native call for one decoded request.  The returned
// response is encoded only if the status is success.
type handlerFn func(s *Server, req sergap.Req) (uint32, sergap.Rsp)

var handlerMap = map[sergap.Opcode]handlerFn{
	sergap.GAP_OP_ADDRESS_SET:       handleAddrSet,
	sergap.GAP_OP_ADDRESS_GET:       handleAddrGet,
	sergap.GAP_OP_ADV_DATA_SET:      handleAdvDataSet,
	sergap.GAP_OP_ADV_START:         handleAdvStart,
	sergap.GAP_OP_ADV_STOP:          handleAdvStop,
	sergap.GAP_OP_CONN_PARAM_UPDATE: handleConnParamUpdate,
	sergap.GAP_OP_DISCONNECT:        handleDisconnect,
	sergap.GAP_OP_TX_POWER_SET:      handleTxPowerSet,
	sergap.GAP_OP_APPEARANCE_SET:    handleAppearanceSet,
	sergap.GAP_OP_APPEARANCE_GET:    handleAppearanceGet,
	sergap.GAP_OP_PPCP_SET:          handlePpcpSet,
	sergap.GAP_OP_PPCP_GET:          handlePpcpGet,
	sergap.GAP_OP_DEVICE_NAME_SET:   handleDevNameSet,
	sergap.GAP_OP_DEVICE_NAME_GET:   handleDevNameGet,
	sergap.GAP_OP_AUTHENTICATE:      handleAuthenticate,
	sergap.GAP_OP_SEC_PARAMS_REPLY:  handleSecParamsReply,
	sergap.GAP_OP_AUTH_KEY_REPLY:    handleAuthKeyReply,
	sergap.GAP_OP_LESC_DHKEY_REPLY:  handleLescDhkeyReply,
	sergap.GAP_OP_KEYPRESS_NOTIFY:   handleKeypressNotify,
	sergap.GAP_OP_ENCRYPT:           handleEncrypt,
	sergap.GAP_OP_SEC_INFO_REPLY:    handleSecInfoReply,
	sergap.GAP_OP_CONN_SEC_GET:      handleConnSecGet,
	sergap.GAP_OP_RSSI_START:        handleRssiStart,
	sergap.GAP_OP_RSSI_STOP:         handleRssiStop,
	sergap.GAP_OP_SCAN_START:        handleScanStart,
	sergap.GAP_OP_SCAN_STOP:         handleScanStop,
	sergap.GAP_OP_CONNECT:           handleConnect,
	sergap.GAP_OP_CONNECT_CANCEL:    handleConnectCancel,
	sergap.GAP_OP_RSSI_GET:          handleRssiGet,
}

func handleAddrSet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AddrSetReq)
	return s.stack.AddressSet(r.CycleMode, r.Addr), nil
}

func handleAddrGet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AddrGetReq)

	rsp := &sergap.AddrGetRsp{}
	if r.WantAddr {
		rsp.Addr = &BleDev{}
	}

	return s.stack.AddressGet(rsp.Addr), rsp
}

func handleAdvDataSet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AdvDataSetReq)
	return s.stack.AdvDataSet(r.Data, r.SrData), nil
}

func handleAdvStart(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AdvStartReq)
	return s.stack.AdvStart(r.Params), nil
}

func handleAdvStop(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	return s.stack.AdvStop(), nil
}

func handleConnParamUpdate(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.ConnParamUpdateReq)
	return s.stack.ConnParamUpdate(r.ConnHandle, r.Params), nil
}

func handleDisconnect(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.DisconnectReq)
	return s.stack.Disconnect(r.ConnHandle, r.HciStatus), nil
}

func handleTxPowerSet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.TxPowerSetReq)
	return s.stack.TxPowerSet(r.TxPower), nil
}

func handleAppearanceSet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AppearanceSetReq)
	return s.stack.AppearanceSet(r.Appearance), nil
}

func handleAppearanceGet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AppearanceGetReq)

	rsp := &sergap.AppearanceGetRsp{}
	if r.WantAppearance {
		rsp.Appearance = new(uint16)
	}

	return s.stack.AppearanceGet(rsp.Appearance), rsp
}

func handlePpcpSet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.PpcpSetReq)
	return s.stack.PpcpSet(r.Params), nil
}

func handlePpcpGet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.PpcpGetReq)

	rsp := &sergap.PpcpGetRsp{}
	if r.WantParams {
		rsp.Params = &BleConnParams{}
	}

	return s.stack.PpcpGet(rsp.Params), rsp
}

func handleDevNameSet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.DevNameSetReq)
	return s.stack.DevNameSet(r.WritePerm, r.Name), nil
}

func handleDevNameGet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.DevNameGetReq)

	rsp := &sergap.DevNameGetRsp{}

	var name []byte
	if r.Len != nil {
		l := *r.Len
		rsp.Len = &l
		if r.WantName {
			name = make([]byte, l)
		}
	}

	status := s.stack.DevNameGet(name, rsp.Len)
	if status != serxutil.NRF_SUCCESS || name == nil {
		return status, rsp
	}

	if int(*rsp.Len) > len(name) {
		log.Errorf("Stack reported device name length %d; buffer holds %d",
			*rsp.Len, len(name))
		return serxutil.NRF_ERROR_INTERNAL, nil
	}
	rsp.Name = name[:*rsp.Len]

	return status, rsp
}

func handleAuthenticate(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AuthenticateReq)
	return s.stack.Authenticate(r.ConnHandle, r.Params), nil
}

// The stack writes keys into the keyset after the reply returns, so the
// storage lives in a security context slot until the procedure ends.  Key
// types the application left out are removed from the slot storage.
func handleSecParamsReply(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.SecParamsReplyReq)

	rsp := &sergap.SecParamsReplyRsp{}

	if r.Keyset == nil {
		return s.stack.SecParamsReply(r.ConnHandle, r.SecStatus, r.Params,
			nil), rsp
	}

	g, err := s.secCtx.Alloc()
	if serxutil.IsNoMemory(err) && s.secCtx.Destroy(r.ConnHandle) == nil {
		// No spare slot; the earlier procedure's storage has to go first.
		log.Debugf("Dropped security context for conn_handle=%d to make room",
			r.ConnHandle)
		g, err = s.secCtx.Alloc()
	}
	if err != nil {
		log.Warnf("Cannot reply to security parameters request: %s",
			err.Error())
		return serxutil.NrfCode(err), nil
	}
	defer g.Release()

	// The new slot is bound before the native call; the stack may report
	// the outcome before the reply returns.  A slot left over from an
	// earlier procedure on this connection is freed only once the stack
	// accepts the new reply.
	if err := g.Replace(r.ConnHandle); err != nil {
		return serxutil.NrfCode(err), nil
	}

	ks := g.Keyset()
	ks.Fill(r.Keyset)

	status := s.stack.SecParamsReply(r.ConnHandle, r.SecStatus, r.Params, ks)
	if status != serxutil.NRF_SUCCESS {
		return status, nil
	}
	rsp.Keyset = g.Commit()

	return status, rsp
}

func handleAuthKeyReply(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.AuthKeyReplyReq)
	return s.stack.AuthKeyReply(r.ConnHandle, r.KeyType, r.Key), nil
}

func handleLescDhkeyReply(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.LescDhkeyReplyReq)
	return s.stack.LescDhkeyReply(r.ConnHandle, r.Dhkey), nil
}

func handleKeypressNotify(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.KeypressNotifyReq)
	return s.stack.KeypressNotify(r.ConnHandle, r.KpNot), nil
}

func handleEncrypt(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.EncryptReq)
	return s.stack.Encrypt(r.ConnHandle, r.MasterId, r.EncInfo), nil
}

func handleSecInfoReply(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.SecInfoReplyReq)
	return s.stack.SecInfoReply(r.ConnHandle, r.EncInfo, r.IdInfo,
		r.SignInfo), nil
}

func handleConnSecGet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.ConnSecGetReq)

	rsp := &sergap.ConnSecGetRsp{}
	if r.WantConnSec {
		rsp.ConnSec = &BleConnSec{}
	}

	return s.stack.ConnSecGet(r.ConnHandle, rsp.ConnSec), rsp
}

func handleRssiStart(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.RssiStartReq)
	return s.stack.RssiStart(r.ConnHandle, r.ThresholdDbm, r.SkipCount), nil
}

func handleRssiStop(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.RssiStopReq)
	return s.stack.RssiStop(r.ConnHandle), nil
}

func handleRssiGet(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.RssiGetReq)

	rsp := &sergap.RssiGetRsp{}
	if r.WantRssi {
		rsp.Rssi = new(int8)
	}

	return s.stack.RssiGet(r.ConnHandle, rsp.Rssi), rsp
}

func handleScanStart(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.ScanStartReq)
	return s.stack.ScanStart(r.Params), nil
}

func handleScanStop(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	return s.stack.ScanStop(), nil
}

func handleConnect(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	r := req.(*sergap.ConnectReq)
	return s.stack.Connect(r.PeerAddr, r.ScanParams, r.ConnParams), nil
}

func handleConnectCancel(s *Server, req sergap.Req) (uint32, sergap.Rsp) {
	return s.stack.ConnectCancel(), nil
}
