/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package constants

import "errors"

var (
	ErrUnauthenticated  = errors.New("caller is not authenticated")
	ErrPermissionDenied = errors.New("caller does not have permission to execute this action")
)

var (
	ErrMissingRequiredField = errors.New("name, service, apiKey and environment are required")
	ErrNoActiveKey          = errors.New("no active API key found for service/environment")
)

var (
	ErrUpstreamUnavailable = errors.New("third-party API is unavailable")
)
