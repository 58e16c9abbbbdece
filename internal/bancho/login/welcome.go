package login

import (
	"banchogate/internal/bancho/packets"
	"banchogate/internal/bancho/wire"
)

const protocolVersion int32 = 19

func simplePacket(id packets.Out) []byte {
	return wire.Frame(uint16(id), nil)
}

func i32Packet(id packets.Out, v int32) []byte {
	w := wire.NewWriter()
	w.WriteI32(v)
	return wire.Frame(uint16(id), w.Bytes())
}

func stringPacket(id packets.Out, s string) []byte {
	w := wire.NewWriter()
	w.WriteString(s)
	return wire.Frame(uint16(id), w.Bytes())
}

func userIDPacket(id int32) []byte            { return i32Packet(packets.UserID, id) }
func banchoPrivilegesPacket(p int64) []byte   { return i32Packet(packets.BanchoPrivileges, int32(p)) }
func protocolVersionPacket() []byte           { return i32Packet(packets.ProtocolVersion, protocolVersion) }
func silenceEndPacket(epoch int64) []byte     { return i32Packet(packets.SilenceEnd, int32(epoch)) }
func notificationPacket(msg string) []byte    { return stringPacket(packets.Notification, msg) }
func accountRestrictedPacket() []byte         { return simplePacket(packets.AccountRestricted) }
func channelInfoEndPacket() []byte            { return simplePacket(packets.ChannelInfoEnd) }
func versionUpdateForcedPacket() []byte       { return simplePacket(packets.VersionUpdateForced) }

func mainMenuIconPacket(imageURL, clickURL string) []byte {
	return stringPacket(packets.MainMenuIcon, imageURL+"|"+clickURL)
}

func friendsListPacket(ids []int32) []byte {
	w := wire.NewWriter()
	w.WriteI32List(ids)
	return wire.Frame(uint16(packets.FriendsList), w.Bytes())
}
