package util

import (
	ws "github.com/gorilla/websocket"
	"github.com/pkg/errors"

	. "netdrive/internel/log"
	"netdrive/internel/pb"
)

func WriteProtoMessage(c *ws.Conn, data *pb.Payload) error {
	data, err := processSendPayload(data)
	if err != nil {
		return err
	}
	buf, err := pb.Marshal(data)
	if err != nil {
		Log.Errorln("Marshal err", err)
		return err
	}
	return c.WriteMessage(ws.BinaryMessage, buf)
}

func ReadProtoMessage(c *ws.Conn) (*pb.Payload, error) {
	mt, buf, err := c.ReadMessage()
	if err != nil {
		return nil, err
	}
	if mt != ws.BinaryMessage {
		return nil, errors.New("not binary message")
	}
	p := &pb.Payload{}
	if err := pb.Unmarshal(buf, p); err != nil {
		Log.Errorln("Unmarshal err", err)
		return nil, err
	}
	if err := processReceivePayload(p); err != nil {
		return nil, err
	}
	return p, nil
}
