package wire

// Message is a chat message: SEND_PUBLIC_MESSAGE / SEND_PRIVATE_MESSAGE
// payload shape and the outgoing SEND_MESSAGE packet.
type Message struct {
	SenderName string
	Content    string
	Target     string
	SenderID   int32
}

// ReadMessage decodes a Message from r.
func ReadMessage(r *Reader) Message {
	return Message{
		SenderName: r.ReadString(),
		Content:    r.ReadString(),
		Target:     r.ReadString(),
		SenderID:   r.ReadI32(),
	}
}

// Serialise appends the message's wire encoding to w.
func (m Message) Serialise(w *Writer) {
	w.WriteString(m.SenderName)
	w.WriteString(m.Content)
	w.WriteString(m.Target)
	w.WriteI32(m.SenderID)
}

// OsuChannel is the CHANNEL_INFO payload shape.
type OsuChannel struct {
	Name        string
	Topic       string
	PlayerCount int32
}

// Serialise appends the channel's wire encoding to w.
func (c OsuChannel) Serialise(w *Writer) {
	w.WriteString(c.Name)
	w.WriteString(c.Topic)
	w.WriteI32(c.PlayerCount)
}

// ScoreFrame is the 29-byte packed live-score record embedded in a
// ReplayFrameBundle, matching the struct layout "<iBHHHHHHiHH?BB?".
type ScoreFrame struct {
	Time        int32
	ID          uint8
	Count300    uint16
	Count100    uint16
	Count50     uint16
	CountGeki   uint16
	CountKatu   uint16
	CountMiss   uint16
	TotalScore  int32
	MaxCombo    uint16
	CurrentCombo uint16
	Perfect     bool
	CurrentHP   uint8
	TagByte     uint8
	ScoreV2     bool

	// Present only when ScoreV2 is true.
	ComboPortion  float64
	BonusPortion  float64
}

// ReadScoreFrame decodes a ScoreFrame, including the two trailing f64s
// when the score-v2 flag is set.
func ReadScoreFrame(r *Reader) ScoreFrame {
	sf := ScoreFrame{
		Time:         r.ReadI32(),
		ID:           r.ReadU8(),
		Count300:     r.ReadU16(),
		Count100:     r.ReadU16(),
		Count50:      r.ReadU16(),
		CountGeki:    r.ReadU16(),
		CountKatu:    r.ReadU16(),
		CountMiss:    r.ReadU16(),
		TotalScore:   r.ReadI32(),
		MaxCombo:     r.ReadU16(),
		CurrentCombo: r.ReadU16(),
		Perfect:      r.ReadBool(),
		CurrentHP:    r.ReadU8(),
		TagByte:      r.ReadU8(),
		ScoreV2:      r.ReadBool(),
	}

	if sf.ScoreV2 {
		sf.ComboPortion = r.ReadF64()
		sf.BonusPortion = r.ReadF64()
	}

	return sf
}

// Serialise appends the score frame's wire encoding to w.
func (sf ScoreFrame) Serialise(w *Writer) {
	w.WriteI32(sf.Time)
	w.WriteU8(sf.ID)
	w.WriteU16(sf.Count300)
	w.WriteU16(sf.Count100)
	w.WriteU16(sf.Count50)
	w.WriteU16(sf.CountGeki)
	w.WriteU16(sf.CountKatu)
	w.WriteU16(sf.CountMiss)
	w.WriteI32(sf.TotalScore)
	w.WriteU16(sf.MaxCombo)
	w.WriteU16(sf.CurrentCombo)
	w.WriteBool(sf.Perfect)
	w.WriteU8(sf.CurrentHP)
	w.WriteU8(sf.TagByte)
	w.WriteBool(sf.ScoreV2)

	if sf.ScoreV2 {
		w.WriteF64(sf.ComboPortion)
		w.WriteF64(sf.BonusPortion)
	}
}

// ReplayFrame is a single input sample within a ReplayFrameBundle.
type ReplayFrame struct {
	ButtonState  uint8
	LegacyButton uint8
	X            float32
	Y            float32
	Time         int32
}

// ReadReplayFrame decodes a ReplayFrame.
func ReadReplayFrame(r *Reader) ReplayFrame {
	return ReplayFrame{
		ButtonState:  r.ReadU8(),
		LegacyButton: r.ReadU8(),
		X:            r.ReadF32(),
		Y:            r.ReadF32(),
		Time:         r.ReadI32(),
	}
}

// Serialise appends the replay frame's wire encoding to w.
func (f ReplayFrame) Serialise(w *Writer) {
	w.WriteU8(f.ButtonState)
	w.WriteU8(f.LegacyButton)
	w.WriteF32(f.X)
	w.WriteF32(f.Y)
	w.WriteI32(f.Time)
}

// ReplayFrameBundle is the SPECTATE_FRAMES payload: a batch of input
// samples plus the live score frame, forwarded verbatim to spectators.
type ReplayFrameBundle struct {
	Extra    int32
	Frames   []ReplayFrame
	Action   uint8
	Score    ScoreFrame
	Sequence uint16
}

// ReadReplayFrameBundle decodes a ReplayFrameBundle.
func ReadReplayFrameBundle(r *Reader) ReplayFrameBundle {
	b := ReplayFrameBundle{Extra: r.ReadI32()}

	count := int(r.ReadU16())
	b.Frames = make([]ReplayFrame, 0, count)
	for i := 0; i < count; i++ {
		b.Frames = append(b.Frames, ReadReplayFrame(r))
	}

	b.Action = r.ReadU8()
	b.Score = ReadScoreFrame(r)
	b.Sequence = r.ReadU16()

	return b
}

// Serialise appends the bundle's wire encoding to w.
func (b ReplayFrameBundle) Serialise(w *Writer) {
	w.WriteI32(b.Extra)
	w.WriteU16(uint16(len(b.Frames)))
	for _, f := range b.Frames {
		f.Serialise(w)
	}
	w.WriteU8(b.Action)
	b.Score.Serialise(w)
	w.WriteU16(b.Sequence)
}
