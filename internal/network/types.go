package network

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// Message is the single request type carried between machines.
type Message struct {
	SenderID  int64  `codec:"sender_id"`
	Timestamp uint64 `codec:"timestamp"`
}

func (m Message) String() string {
	return fmt.Sprintf("Message{sender=%d ts=%d}", m.SenderID, m.Timestamp)
}

// Ack is returned by the receiver. It is informational and never fed back
// into the sender's clock.
type Ack struct {
	MachineID int64  `codec:"machine_id"`
	Timestamp uint64 `codec:"timestamp"`
}

const (
	serviceName   = "vmsim.Delivery"
	deliverMethod = "/" + serviceName + "/Deliver"
)

// DeliveryServer is the server-side handler of the delivery service.
type DeliveryServer interface {
	Deliver(ctx context.Context, msg *Message) (*Ack, error)
}

func deliverHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Message)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DeliveryServer).Deliver(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: deliverMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DeliveryServer).Deliver(ctx, req.(*Message))
	}
	return interceptor(ctx, in, info, handler)
}

var deliveryServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DeliveryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deliver",
			Handler:    deliverHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vmsim/delivery",
}
