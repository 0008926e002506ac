package game

// ReadPump turns inbound socket frames into room envelopes. A read error is
// the disconnect signal, it funnels through the registry as a leave.
func (p *player) ReadPump() {
	defer p.CancelAndRelease()
	defer p.resolver.ResolveDisconnect(p.connId)

	for {
		data, err := p.socket.Read()
		if err != nil {
			return
		}
		if p.ctx.Err() != nil {
			return
		}
		if !p.limiter.Allow() {
			continue
		}

		packet, err := DecodeClientPacket(data)
		if err != nil {
			p.Send(MakePacketError(ErrInvalidPayload).Encode())
			continue
		}

		room := p.currentRoom()
		if room == nil {
			continue
		}
		room.Send(p.ctx, ClientPacketEnvelope{clientPacket: packet, from: p})
	}
}

func (p *player) WritePump() {
	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				return
			}
			if err := p.socket.Write(data); err != nil {
				p.CancelAndRelease()
				return
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				p.CancelAndRelease()
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}
